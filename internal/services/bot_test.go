package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
)

type nopSender struct{}

func (nopSender) SendWhatsApp(to, body string) error { return nil }

func newTestBot(t *testing.T, aiHandler http.HandlerFunc) (*MessageService, *reminders.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(aiHandler)
	t.Cleanup(srv.Close)

	store := reminders.NewMemoryStore()
	scheduler := reminders.NewScheduler(store, nopSender{}, zerolog.Nop())
	bot := NewMessageService(NewAIService(srv.URL, ""), scheduler, reminders.NewMemorySessions(), zerolog.Nop())
	return bot, store
}

func echoAI(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"result": reply})
	}
}

func TestBotHelpCommand(t *testing.T) {
	bot, _ := newTestBot(t, echoAI("unused"))
	for _, cmd := range []string{"help", "HELP", "menu"} {
		reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", cmd)
		if !strings.Contains(reply, "SmartDoc Assistant") {
			t.Errorf("%q reply = %q", cmd, reply)
		}
	}
}

func TestBotEmptyMessageGetsHelp(t *testing.T) {
	bot, _ := newTestBot(t, echoAI("unused"))
	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "   ")
	if !strings.Contains(reply, "SmartDoc Assistant") {
		t.Errorf("reply = %q", reply)
	}
}

func TestBotBookingCommand(t *testing.T) {
	bot, _ := newTestBot(t, echoAI("unused"))
	for _, msg := range []string{
		"I want to book appointment",
		"can I schedule a visit",
	} {
		reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", msg)
		if !strings.Contains(reply, "appointment") {
			t.Errorf("%q reply = %q", msg, reply)
		}
	}
}

func TestBotReminderInstructions(t *testing.T) {
	bot, store := newTestBot(t, echoAI("unused"))
	// Conversational phrasings get the how-to, never the parse error, even
	// when they start with "remind ".
	for _, msg := range []string{
		"set reminder please",
		"remind me tomorrow",
		"remind me to take my pills",
	} {
		reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", msg)
		if !strings.Contains(reply, "REMIND YYYY-MM-DD HH:MM") {
			t.Errorf("%q reply = %q", msg, reply)
		}
	}
	if store.Count() != 0 {
		t.Errorf("how-to phrasings stored reminders: %d", store.Count())
	}
}

func TestBotSetsReminder(t *testing.T) {
	bot, store := newTestBot(t, echoAI("unused"))
	future := time.Now().Add(24 * time.Hour).Format("2006-01-02 15:04")

	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+15551234",
		"remind "+future+" take medication")
	if !strings.Contains(reply, "Reminder set") {
		t.Fatalf("reply = %q", reply)
	}
	if store.Count() != 1 {
		t.Fatalf("store count = %d", store.Count())
	}
	// Stored under the bare number, not the whatsapp-prefixed one.
	if got := store.ByPhone("+15551234"); len(got) != 1 {
		t.Errorf("ByPhone = %v", got)
	}
}

func TestBotRejectsBadReminder(t *testing.T) {
	bot, store := newTestBot(t, echoAI("unused"))

	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "remind tomorrow")
	if !strings.Contains(reply, "Invalid format") {
		t.Errorf("short command reply = %q", reply)
	}
	reply = bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "remind 2020-01-01 09:00 too late")
	if !strings.Contains(reply, "future") {
		t.Errorf("past command reply = %q", reply)
	}
	if store.Count() != 0 {
		t.Errorf("bad commands stored reminders: %d", store.Count())
	}
}

func TestBotListsReminders(t *testing.T) {
	bot, _ := newTestBot(t, echoAI("unused"))

	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "my reminders")
	if !strings.Contains(reply, "no upcoming reminders") {
		t.Errorf("empty list reply = %q", reply)
	}

	future := time.Now().Add(time.Hour).Format("2006-01-02 15:04")
	bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "remind "+future+" drink water")
	reply = bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "list reminders")
	if !strings.Contains(reply, "drink water") {
		t.Errorf("list reply = %q", reply)
	}
}

func TestBotForwardsToAI(t *testing.T) {
	bot, _ := newTestBot(t, echoAI("That sounds like a tension headache."))
	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "my head hurts")
	if reply != "That sounds like a tension headache." {
		t.Errorf("reply = %q", reply)
	}
}

func TestBotKeepsSessionPerPhone(t *testing.T) {
	var sessionIDs []string
	bot, _ := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		sessionIDs = append(sessionIDs, req["session_id"])
		json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	})

	bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "first")
	bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "second")
	bot.ProcessIncomingMessage(context.Background(), "whatsapp:+2", "other")

	if len(sessionIDs) != 3 {
		t.Fatalf("AI called %d times", len(sessionIDs))
	}
	if sessionIDs[0] == "" || sessionIDs[0] != sessionIDs[1] {
		t.Errorf("same phone got different sessions: %q vs %q", sessionIDs[0], sessionIDs[1])
	}
	if sessionIDs[2] == sessionIDs[0] {
		t.Error("different phones share a session")
	}
}

func TestBotApologizesOnAIFailure(t *testing.T) {
	bot, _ := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	reply := bot.ProcessIncomingMessage(context.Background(), "whatsapp:+1", "my head hurts")
	if reply != "Sorry, I encountered an error. Please try again." {
		t.Errorf("reply = %q", reply)
	}
}
