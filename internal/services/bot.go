package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
)

// Canned WhatsApp replies.
const (
	botErrorReply = "Sorry, I encountered an error. Please try again."

	botBookingReply = "To book an appointment, please sign in to the SmartDoc app and choose a doctor. " +
		"Reply HELP to see everything I can do."

	botReminderHowTo = "To set a reminder, send:\n\nREMIND YYYY-MM-DD HH:MM your message\n\n" +
		"Example: REMIND 2025-01-15 09:00 Take blood pressure medication"

	botHelpReply = "🩺 SmartDoc Assistant\n\n" +
		"You can:\n" +
		"• Ask me any health question\n" +
		"• BOOK APPOINTMENT - appointment booking info\n" +
		"• REMIND YYYY-MM-DD HH:MM message - set a reminder\n" +
		"• MY REMINDERS - list your reminders\n" +
		"• HELP - show this menu"
)

// MessageService is the WhatsApp conversation brain: it routes special
// commands (booking, reminders, help) and forwards everything else to the
// AI assistant, keeping one chat session per phone number.
type MessageService struct {
	AI        *AIService
	Scheduler *reminders.Scheduler
	Sessions  reminders.SessionStore
	log       zerolog.Logger
}

func NewMessageService(ai *AIService, scheduler *reminders.Scheduler, sessions reminders.SessionStore, log zerolog.Logger) *MessageService {
	return &MessageService{AI: ai, Scheduler: scheduler, Sessions: sessions, log: log}
}

// ProcessIncomingMessage handles one inbound WhatsApp message and returns the
// reply to send back. It never returns an error; failures become the apology
// reply so the user always hears something.
func (s *MessageService) ProcessIncomingMessage(ctx context.Context, from, body string) string {
	phone := reminders.ExtractPhoneNumber(from)
	text := strings.TrimSpace(body)
	if text == "" {
		return botHelpReply
	}

	if reply, handled := s.HandleSpecialCommands(phone, text); handled {
		return reply
	}

	sessionID, ok := s.Sessions.Get(phone)
	if !ok {
		sessionID = uuid.NewString()
		s.Sessions.Put(phone, sessionID)
	}

	reply, err := s.AI.Chat(ctx, text, sessionID, phone)
	if err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("whatsapp inference call failed")
		return botErrorReply
	}
	return reply
}

// HandleSpecialCommands matches the command vocabulary. The second return is
// false when the message should go to the AI instead.
func (s *MessageService) HandleSpecialCommands(phone, text string) (string, bool) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "book appointment"), strings.Contains(lower, "schedule"):
		return botBookingReply, true
	// "remind me ..." is conversational, so the how-to wins over the
	// structured REMIND command even though both start with "remind ".
	case strings.Contains(lower, "set reminder"), strings.Contains(lower, "remind me"):
		return botReminderHowTo, true
	case strings.HasPrefix(lower, "remind "):
		return s.parseAndSetReminder(phone, text), true
	case lower == "my reminders", lower == "list reminders":
		return s.listUserReminders(phone), true
	case lower == "help", lower == "menu":
		return botHelpReply, true
	}
	return "", false
}

func (s *MessageService) parseAndSetReminder(phone, command string) string {
	at, message, err := reminders.ParseCommand(command, time.Now())
	if err != nil {
		return err.Error()
	}
	r, err := s.Scheduler.Schedule(phone, at, message)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("✅ Reminder set for %s:\n%s", r.DateTime.Format("2006-01-02 15:04"), r.Message)
}

func (s *MessageService) listUserReminders(phone string) string {
	list := s.Scheduler.UserReminders(phone)
	if len(list) == 0 {
		return "You have no upcoming reminders."
	}
	var b strings.Builder
	b.WriteString("📋 Your reminders:\n")
	for i, r := range list {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.DateTime.Format("2006-01-02 15:04"), r.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
