package services

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartdoc-health/smartdoc-api/internal/models"
	"github.com/smartdoc-health/smartdoc-api/internal/utils"
)

// TempDoctorPassword is assigned to roster-created doctor accounts. The
// account stays in pending status until the doctor signs in and completes
// their profile.
const TempDoctorPassword = "defaultPassword123!"

var ErrEmptyRoster = errors.New("Roster file contains no doctor rows")

// RosterRow is one doctor entry from an uploaded roster file.
type RosterRow struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	Specialization string `json:"specialization"`
}

// RosterSkip explains why a row was not imported.
type RosterSkip struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// RosterReport is the outcome of one roster import.
type RosterReport struct {
	Created int          `json:"created"`
	Skipped []RosterSkip `json:"skipped"`
}

// RosterService bulk-creates doctor accounts from hospital roster uploads.
type RosterService struct {
	DB    *mongo.Database
	Email *EmailService
	log   zerolog.Logger
}

func NewRosterService(db *mongo.Database, email *EmailService, log zerolog.Logger) *RosterService {
	return &RosterService{DB: db, Email: email, log: log}
}

// ParseRosterCSV reads a comma-separated roster. The first row must be a
// header; column order is free and header matching ignores case and spaces.
func ParseRosterCSV(r io.Reader) ([]RosterRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records)
}

// ParseRosterXLSX reads the first sheet of an Excel roster with the same
// header conventions as the CSV form.
func ParseRosterXLSX(r io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyRoster
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]RosterRow, error) {
	if len(records) < 2 {
		return nil, ErrEmptyRoster
	}

	// Map header names to column indexes.
	idx := map[string]int{}
	for i, name := range records[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
		idx[key] = i
	}
	field := func(record []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]RosterRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := RosterRow{
			FirstName:      field(record, "firstname"),
			LastName:       field(record, "lastname"),
			Email:          field(record, "email"),
			PhoneNumber:    field(record, "phonenumber"),
			Specialization: field(record, "specialization"),
		}
		if row.FirstName == "" && row.LastName == "" && row.Email == "" {
			continue // blank line
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}
	return rows, nil
}

// ImportDoctors creates a pending doctor account for each usable row. Rows
// without an email, with an invalid email, or matching an existing account
// are skipped and reported, never fatal.
func (s *RosterService) ImportDoctors(ctx context.Context, hospital *models.User, rows []RosterRow) (*RosterReport, error) {
	role, err := models.FindRole(ctx, s.DB, models.TypeDoctor)
	if err != nil {
		return nil, err
	}
	hashed, err := utils.HashPassword(TempDoctorPassword)
	if err != nil {
		return nil, err
	}

	report := &RosterReport{Skipped: make([]RosterSkip, 0)}
	users := s.DB.Collection(models.UsersCollection)

	for i, row := range rows {
		rowNum := i + 2 // header is row 1
		if row.Email == "" {
			report.Skipped = append(report.Skipped, RosterSkip{Row: rowNum, Reason: "missing email"})
			continue
		}
		email := strings.ToLower(row.Email)
		if !utils.ValidEmail(email) {
			report.Skipped = append(report.Skipped, RosterSkip{Row: rowNum, Email: email, Reason: "invalid email"})
			continue
		}
		count, err := users.CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			return nil, err
		}
		if count > 0 {
			report.Skipped = append(report.Skipped, RosterSkip{Row: rowNum, Email: email, Reason: "account already exists"})
			continue
		}

		now := time.Now()
		doctor := models.User{
			ID:             primitive.NewObjectID(),
			Email:          email,
			Password:       hashed,
			RoleID:         role.ID,
			Type:           models.TypeDoctor,
			Status:         models.StatusPending,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
			PhoneNumber:    row.PhoneNumber,
			HospitalID:     hospital.ID,
			Specialization: row.Specialization,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := users.InsertOne(ctx, doctor); err != nil {
			report.Skipped = append(report.Skipped, RosterSkip{Row: rowNum, Email: email, Reason: "failed to create account"})
			s.log.Error().Err(err).Str("email", email).Msg("roster import insert failed")
			continue
		}
		report.Created++

		go func(to, firstName string) {
			if err := s.Email.SendDoctorWelcome(to, firstName, hospital.HospitalName, TempDoctorPassword); err != nil {
				s.log.Error().Err(err).Str("email", to).Msg("failed to send doctor welcome email")
			}
		}(email, row.FirstName)
	}
	return report, nil
}
