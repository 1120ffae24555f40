package services

import (
	"strings"
	"testing"
)

func TestParseRosterCSV(t *testing.T) {
	csvData := `First Name,Last Name,Email,Phone Number,Specialization
Jane,Doe,jane@hospital.org,+15551234,Cardiology
John,Smith,john@hospital.org,,Neurology
,,,,
Amy,Lee,,,Dermatology
`
	rows, err := ParseRosterCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseRosterCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank line skipped)", len(rows))
	}
	if rows[0].FirstName != "Jane" || rows[0].Email != "jane@hospital.org" || rows[0].Specialization != "Cardiology" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].PhoneNumber != "" {
		t.Errorf("row 1 phone = %q, want empty", rows[1].PhoneNumber)
	}
	// Row without email survives parsing; the import step reports it.
	if rows[2].FirstName != "Amy" || rows[2].Email != "" {
		t.Errorf("row 2 = %+v", rows[2])
	}
}

func TestParseRosterCSVHeaderCaseInsensitive(t *testing.T) {
	csvData := "EMAIL,FIRSTNAME\na@b.co,Ann\n"
	rows, err := ParseRosterCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseRosterCSV: %v", err)
	}
	if rows[0].Email != "a@b.co" || rows[0].FirstName != "Ann" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestParseRosterCSVEmpty(t *testing.T) {
	if _, err := ParseRosterCSV(strings.NewReader("firstName,email\n")); err != ErrEmptyRoster {
		t.Fatalf("header-only err = %v, want ErrEmptyRoster", err)
	}
	if _, err := ParseRosterCSV(strings.NewReader("")); err != ErrEmptyRoster {
		t.Fatalf("empty err = %v, want ErrEmptyRoster", err)
	}
}
