package reminders

import (
	"errors"
	"strings"
	"time"
)

// Errors surfaced verbatim to the WhatsApp user.
var (
	ErrBadFormat   = errors.New("Invalid format. Use: REMIND YYYY-MM-DD HH:MM message")
	ErrBadDateTime = errors.New("Invalid date/time format")
	ErrPastTime    = errors.New("Reminder time must be in the future")
)

// ParseCommand parses "remind YYYY-MM-DD HH:MM message ...". The prefix check
// is case-insensitive because the bot lowercases commands before dispatch.
func ParseCommand(command string, now time.Time) (time.Time, string, error) {
	rest := strings.TrimSpace(command)
	if len(rest) >= len("remind ") && strings.EqualFold(rest[:len("remind ")], "remind ") {
		rest = rest[len("remind "):]
	}
	parts := strings.Fields(rest)
	if len(parts) < 3 {
		return time.Time{}, "", ErrBadFormat
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", parts[0]+" "+parts[1], now.Location())
	if err != nil {
		return time.Time{}, "", ErrBadDateTime
	}
	if !at.After(now) {
		return time.Time{}, "", ErrPastTime
	}
	return at, strings.Join(parts[2:], " "), nil
}

// ParseDateTime accepts the API-side formats: RFC3339 or "YYYY-MM-DD HH:MM".
func ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, ErrBadDateTime
}
