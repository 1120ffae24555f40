package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioService wraps the Twilio REST client for WhatsApp messaging. It
// implements reminders.Sender.
type TwilioService struct {
	client *twilio.RestClient
	from   string
	log    zerolog.Logger
}

// BulkResult reports the outcome for one recipient of a bulk send.
type BulkResult struct {
	To      string `json:"to"`
	Success bool   `json:"success"`
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewTwilioService(accountSID, authToken, fromNumber string, log zerolog.Logger) *TwilioService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioService{client: client, from: fromNumber, log: log}
}

// SendWhatsApp delivers one WhatsApp message. Both numbers carry the
// "whatsapp:" scheme on the wire.
func (s *TwilioService) SendWhatsApp(to, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(withWhatsAppScheme(s.from))
	params.SetTo(withWhatsAppScheme(to))
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		s.log.Error().Err(err).Str("to", to).Msg("failed to send whatsapp message")
		return fmt.Errorf("failed to send WhatsApp message: %w", err)
	}
	if msg.Sid != nil {
		s.log.Info().Str("sid", *msg.Sid).Str("to", to).Msg("whatsapp message sent")
	}
	return nil
}

// SendTemplateMessage sends a pre-approved WhatsApp content template with
// its variable substitutions.
func (s *TwilioService) SendTemplateMessage(to, contentSID string, variables map[string]string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetFrom(withWhatsAppScheme(s.from))
	params.SetTo(withWhatsAppScheme(to))
	params.SetContentSid(contentSID)
	if len(variables) > 0 {
		raw, err := json.Marshal(variables)
		if err != nil {
			return err
		}
		params.SetContentVariables(string(raw))
	}

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		s.log.Error().Err(err).Str("to", to).Str("content", contentSID).Msg("failed to send template message")
		return fmt.Errorf("failed to send template message: %w", err)
	}
	return nil
}

// SendBulkMessages delivers the same body to every recipient, spacing sends a
// second apart to stay inside Twilio's rate limit. Failures do not stop the
// run; each recipient gets its own result.
func (s *TwilioService) SendBulkMessages(recipients []string, body string) []BulkResult {
	results := make([]BulkResult, 0, len(recipients))
	for i, to := range recipients {
		if i > 0 {
			time.Sleep(time.Second)
		}
		if err := s.SendWhatsApp(to, body); err != nil {
			results = append(results, BulkResult{To: to, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{To: to, Success: true})
	}
	return results
}

func withWhatsAppScheme(number string) string {
	if len(number) >= 9 && number[:9] == "whatsapp:" {
		return number
	}
	return "whatsapp:" + number
}
