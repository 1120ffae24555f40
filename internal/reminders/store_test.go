package reminders

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryStorePutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	r := Reminder{ID: "r1", PhoneNumber: "+123", Message: "hi", DateTime: time.Now()}
	s.Put(r)

	got, ok := s.Get("r1")
	if !ok {
		t.Fatal("Get after Put failed")
	}
	if got.Message != "hi" {
		t.Errorf("Message = %q", got.Message)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}

	if !s.Delete("r1") {
		t.Error("Delete existing returned false")
	}
	if s.Delete("r1") {
		t.Error("Delete missing returned true")
	}
	if _, ok := s.Get("r1"); ok {
		t.Error("Get after Delete succeeded")
	}
}

func TestMemoryStoreDue(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Put(Reminder{ID: "past", DateTime: now.Add(-time.Minute)})
	s.Put(Reminder{ID: "exact", DateTime: now})
	s.Put(Reminder{ID: "future", DateTime: now.Add(time.Minute)})
	s.Put(Reminder{ID: "sent", DateTime: now.Add(-time.Hour), Sent: true})

	due := s.Due(now)
	ids := map[string]bool{}
	for _, r := range due {
		ids[r.ID] = true
	}
	if len(due) != 2 || !ids["past"] || !ids["exact"] {
		t.Fatalf("Due = %v, want past and exact", ids)
	}
}

func TestMarkSentExactlyOnce(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Reminder{ID: "r1", DateTime: time.Now()})

	var wg sync.WaitGroup
	wins := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkSent("r1", time.Now()) {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("MarkSent won %d times, want exactly 1", count)
	}

	got, _ := s.Get("r1")
	if !got.Sent || got.SentAt == nil {
		t.Error("reminder not flagged sent with a timestamp")
	}
}

func TestMarkSentUnknownID(t *testing.T) {
	s := NewMemoryStore()
	if s.MarkSent("nope", time.Now()) {
		t.Fatal("MarkSent on missing reminder returned true")
	}
}

func TestByPhoneExcludesSent(t *testing.T) {
	s := NewMemoryStore()
	s.Put(Reminder{ID: "a", PhoneNumber: "+1", DateTime: time.Now()})
	s.Put(Reminder{ID: "b", PhoneNumber: "+1", DateTime: time.Now(), Sent: true})
	s.Put(Reminder{ID: "c", PhoneNumber: "+2", DateTime: time.Now()})

	got := s.ByPhone("+1")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("ByPhone(+1) = %v, want just a", got)
	}
}

func TestMemorySessions(t *testing.T) {
	s := NewMemorySessions()
	if _, ok := s.Get("+1"); ok {
		t.Error("Get on empty store succeeded")
	}
	s.Put("+1", "session-1")
	id, ok := s.Get("+1")
	if !ok || id != "session-1" {
		t.Fatalf("Get = (%q, %v)", id, ok)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d", s.Count())
	}
	if !s.Delete("+1") {
		t.Error("Delete existing returned false")
	}
	if s.Delete("+1") {
		t.Error("Delete missing returned true")
	}
}
