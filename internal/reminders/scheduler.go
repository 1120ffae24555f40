package reminders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sender delivers a reminder over WhatsApp. Implemented by the Twilio service.
type Sender interface {
	SendWhatsApp(to, body string) error
}

var (
	ErrNotFound    = errors.New("Reminder not found")
	ErrAlreadySent = errors.New("Reminder already sent")
)

// Scheduler scans the store once a minute and dispatches due reminders. Sent
// reminders are kept for an hour so the user can still see them, then purged.
type Scheduler struct {
	store       Store
	sender      Sender
	cron        *cron.Cron
	log         zerolog.Logger
	purgeAfter  time.Duration
	deleteTimer func(d time.Duration, f func()) // swapped in tests
}

func NewScheduler(store Store, sender Sender, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		sender:     sender,
		cron:       cron.New(),
		log:        log,
		purgeAfter: time.Hour,
		deleteTimer: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Start begins the minute-granularity due check.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.CheckDueReminders); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Msg("reminder system started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("reminder system stopped")
}

// Schedule registers a future reminder. Past timestamps are rejected.
func (s *Scheduler) Schedule(phoneNumber string, at time.Time, message string) (Reminder, error) {
	if !at.After(time.Now()) {
		return Reminder{}, ErrPastTime
	}
	r := Reminder{
		ID:          uuid.NewString(),
		PhoneNumber: phoneNumber,
		DateTime:    at,
		Message:     message,
		CreatedAt:   time.Now(),
	}
	s.store.Put(r)
	s.log.Info().Str("reminder", r.ID).Str("phone", phoneNumber).Time("at", at).Msg("scheduled reminder")
	return r, nil
}

// Cancel removes an unsent reminder.
func (s *Scheduler) Cancel(id string) error {
	r, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if r.Sent {
		return ErrAlreadySent
	}
	s.store.Delete(id)
	return nil
}

// UserReminders lists the unsent reminders for a phone number.
func (s *Scheduler) UserReminders(phoneNumber string) []Reminder {
	return s.store.ByPhone(phoneNumber)
}

// CheckDueReminders dispatches every due, unsent reminder. MarkSent gates the
// send so overlapping ticks cannot double-deliver.
func (s *Scheduler) CheckDueReminders() {
	for _, r := range s.store.Due(time.Now()) {
		if !s.store.MarkSent(r.ID, time.Now()) {
			continue
		}
		if err := s.sender.SendWhatsApp(FormatWhatsAppNumber(r.PhoneNumber), "🔔 Reminder: "+r.Message); err != nil {
			s.log.Error().Err(err).Str("reminder", r.ID).Msg("failed to send reminder")
			continue
		}
		s.log.Info().Str("reminder", r.ID).Str("phone", r.PhoneNumber).Msg("sent reminder")
		id := r.ID
		s.deleteTimer(s.purgeAfter, func() { s.store.Delete(id) })
	}
}

// FormatWhatsAppNumber prefixes the Twilio WhatsApp scheme when missing.
func FormatWhatsAppNumber(phoneNumber string) string {
	if len(phoneNumber) >= 9 && phoneNumber[:9] == "whatsapp:" {
		return phoneNumber
	}
	return "whatsapp:" + phoneNumber
}

// ExtractPhoneNumber strips the Twilio WhatsApp scheme.
func ExtractPhoneNumber(whatsappNumber string) string {
	if len(whatsappNumber) >= 9 && whatsappNumber[:9] == "whatsapp:" {
		return whatsappNumber[9:]
	}
	return whatsappNumber
}
