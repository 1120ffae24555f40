package reminders

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string // "to|body"
	fail  bool
	calls int
}

func (f *fakeSender) SendWhatsApp(to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("boom")
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

func newTestScheduler(sender Sender) (*Scheduler, *MemoryStore) {
	store := NewMemoryStore()
	s := NewScheduler(store, sender, zerolog.Nop())
	// Purge synchronously so tests can observe deletion.
	s.deleteTimer = func(d time.Duration, f func()) { f() }
	return s, store
}

func TestScheduleRejectsPast(t *testing.T) {
	s, _ := newTestScheduler(&fakeSender{})
	if _, err := s.Schedule("+1", time.Now().Add(-time.Minute), "late"); err != ErrPastTime {
		t.Fatalf("err = %v, want ErrPastTime", err)
	}
}

func TestScheduleAndList(t *testing.T) {
	s, store := newTestScheduler(&fakeSender{})
	r, err := s.Schedule("+1", time.Now().Add(time.Hour), "hello")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if r.ID == "" {
		t.Error("empty reminder id")
	}
	if store.Count() != 1 {
		t.Errorf("store count = %d", store.Count())
	}
	list := s.UserReminders("+1")
	if len(list) != 1 || list[0].Message != "hello" {
		t.Fatalf("UserReminders = %v", list)
	}
}

func TestCheckDueRemindersSendsOnceAndPurges(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)

	store.Put(Reminder{ID: "due", PhoneNumber: "+15551234", DateTime: time.Now().Add(-time.Second)})
	store.Put(Reminder{ID: "later", PhoneNumber: "+15551234", DateTime: time.Now().Add(time.Hour)})

	s.CheckDueReminders()

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.HasPrefix(msg, "whatsapp:+15551234|") {
		t.Errorf("recipient not whatsapp-prefixed: %q", msg)
	}
	if !strings.Contains(msg, "🔔 Reminder: ") {
		t.Errorf("body missing reminder prefix: %q", msg)
	}

	// Purge ran synchronously, so only the future reminder remains.
	if _, ok := store.Get("due"); ok {
		t.Error("sent reminder not purged")
	}
	if _, ok := store.Get("later"); !ok {
		t.Error("future reminder disappeared")
	}

	// A second tick must not resend.
	s.CheckDueReminders()
	if len(sender.sent) != 1 {
		t.Fatalf("second tick resent: %d sends", len(sender.sent))
	}
}

func TestCheckDueRemindersSendFailureKeepsSentFlag(t *testing.T) {
	sender := &fakeSender{fail: true}
	s, store := newTestScheduler(sender)
	store.Put(Reminder{ID: "due", PhoneNumber: "+1", DateTime: time.Now().Add(-time.Second)})

	s.CheckDueReminders()
	s.CheckDueReminders()

	// Delivery is attempted at most once per reminder.
	if sender.calls != 1 {
		t.Fatalf("send attempted %d times, want 1", sender.calls)
	}
}

func TestCancel(t *testing.T) {
	s, store := newTestScheduler(&fakeSender{})
	r, _ := s.Schedule("+1", time.Now().Add(time.Hour), "x")

	if err := s.Cancel("unknown"); err != ErrNotFound {
		t.Errorf("Cancel unknown = %v, want ErrNotFound", err)
	}
	if err := s.Cancel(r.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if store.Count() != 0 {
		t.Error("reminder still stored after cancel")
	}

	store.Put(Reminder{ID: "sent", Sent: true})
	if err := s.Cancel("sent"); err != ErrAlreadySent {
		t.Errorf("Cancel sent = %v, want ErrAlreadySent", err)
	}
}

func TestWhatsAppNumberFormatting(t *testing.T) {
	if got := FormatWhatsAppNumber("+1555"); got != "whatsapp:+1555" {
		t.Errorf("FormatWhatsAppNumber = %q", got)
	}
	if got := FormatWhatsAppNumber("whatsapp:+1555"); got != "whatsapp:+1555" {
		t.Errorf("already prefixed changed: %q", got)
	}
	if got := ExtractPhoneNumber("whatsapp:+1555"); got != "+1555" {
		t.Errorf("ExtractPhoneNumber = %q", got)
	}
	if got := ExtractPhoneNumber("+1555"); got != "+1555" {
		t.Errorf("bare number changed: %q", got)
	}
}
