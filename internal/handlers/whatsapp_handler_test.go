package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
)

type silentSender struct{}

func (silentSender) SendWhatsApp(to, body string) error { return nil }

func newReminderRouter(t *testing.T) (*gin.Engine, *reminders.Scheduler, *reminders.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := reminders.NewMemoryStore()
	scheduler := reminders.NewScheduler(store, silentSender{}, zerolog.Nop())
	h := &Handler{Scheduler: scheduler}

	r := gin.New()
	r.DELETE("/reminder/:reminderId", h.CancelReminder)
	return r, scheduler, store
}

func TestCancelReminderStatuses(t *testing.T) {
	r, scheduler, store := newReminderRouter(t)

	pending, err := scheduler.Schedule("+1555", time.Now().Add(time.Hour), "take pills")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	store.Put(reminders.Reminder{ID: "gone", PhoneNumber: "+1555", Sent: true})

	cases := []struct {
		name   string
		id     string
		status int
	}{
		{"unknown reminder", "nope", http.StatusNotFound},
		{"already sent", "gone", http.StatusNotFound},
		{"pending reminder", pending.ID, http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/reminder/"+tc.id, nil)
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
	}

	if store.Count() != 1 {
		t.Errorf("store count after cancel = %d, want 1", store.Count())
	}
}
