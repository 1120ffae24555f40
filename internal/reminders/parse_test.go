package reminders

import (
	"testing"
	"time"
)

func TestParseCommand(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.Local)

	cases := []struct {
		name    string
		command string
		wantMsg string
		wantErr error
	}{
		{"valid", "remind 2025-01-15 09:00 Take medication", "Take medication", nil},
		{"valid uppercase", "REMIND 2025-01-15 09:00 Take medication", "Take medication", nil},
		{"multi word message", "remind 2025-02-01 08:30 drink water every hour", "drink water every hour", nil},
		{"too few parts", "remind 2025-01-15", "", ErrBadFormat},
		{"empty", "remind ", "", ErrBadFormat},
		{"bad date", "remind someday 09:00 hello", "", ErrBadDateTime},
		{"bad time", "remind 2025-01-15 25:99 hello", "", ErrBadDateTime},
		{"past", "remind 2024-12-31 09:00 hello", "", ErrPastTime},
		{"exactly now", "remind 2025-01-10 12:00 hello", "", ErrPastTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at, msg, err := ParseCommand(tc.command, now)
			if tc.wantErr != nil {
				if err != tc.wantErr {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg != tc.wantMsg {
				t.Errorf("message = %q, want %q", msg, tc.wantMsg)
			}
			if !at.After(now) {
				t.Errorf("parsed time %v not after now", at)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	if _, err := ParseDateTime("2025-06-01T10:00:00Z"); err != nil {
		t.Errorf("RFC3339 rejected: %v", err)
	}
	if _, err := ParseDateTime("2025-06-01 10:00"); err != nil {
		t.Errorf("simple format rejected: %v", err)
	}
	if _, err := ParseDateTime("June 1st"); err != ErrBadDateTime {
		t.Errorf("err = %v, want ErrBadDateTime", err)
	}
}
