package handlers

import (
	"testing"

	"github.com/smartdoc-health/smartdoc-api/internal/models"
)

func TestAllowedProfileFieldsPerRole(t *testing.T) {
	cases := []struct {
		userType string
		allowed  []string
		denied   []string
	}{
		{models.TypePatient,
			[]string{"bloodGroup", "height_CM", "emergencyContactName", "firstName"},
			[]string{"bedCapacity", "specialization", "hospitalName", "availability"}},
		{models.TypeDoctor,
			[]string{"specialization", "bio", "availability", "hospitalId", "lastName"},
			[]string{"bloodGroup", "bedCapacity", "registrationNumber", "dateOfBirth"}},
		{models.TypeHospital,
			[]string{"hospitalName", "bedCapacity", "schedule", "registrationNumber"},
			[]string{"specialization", "bloodGroup", "availability", "weight_KG"}},
		{models.TypeAdmin,
			[]string{"firstName", "email", "phoneNumber"},
			[]string{"bedCapacity", "bloodGroup", "specialization"}},
	}
	for _, tc := range cases {
		fields := allowedProfileFields(tc.userType)
		for _, f := range tc.allowed {
			if !contains(fields, f) {
				t.Errorf("%s: %q should be allowed", tc.userType, f)
			}
		}
		for _, f := range tc.denied {
			if contains(fields, f) {
				t.Errorf("%s: %q should be denied", tc.userType, f)
			}
		}
	}
}

func TestTimeSlotsField(t *testing.T) {
	valid := []any{
		map[string]any{"day": "monday", "start": "09:00", "end": "17:00"},
	}
	slots, err := timeSlotsField("availability", valid)
	if err != nil {
		t.Fatalf("valid slots rejected: %v", err)
	}
	if len(slots) != 1 || slots[0].Day != "monday" {
		t.Errorf("slots = %+v", slots)
	}

	// Multipart requests carry the slots as a JSON string.
	slots, err = timeSlotsField("schedule", `[{"day":"friday","start":"08:30","end":"12:00"}]`)
	if err != nil {
		t.Fatalf("JSON string form rejected: %v", err)
	}
	if len(slots) != 1 || slots[0].Start != "08:30" {
		t.Errorf("slots = %+v", slots)
	}

	badDay := []any{map[string]any{"day": "someday", "start": "09:00", "end": "17:00"}}
	if _, err := timeSlotsField("availability", badDay); err == nil {
		t.Error("invalid day accepted")
	}
	badTime := []any{map[string]any{"day": "monday", "start": "9am", "end": "17:00"}}
	if _, err := timeSlotsField("availability", badTime); err == nil {
		t.Error("invalid time accepted")
	}
	badHour := []any{map[string]any{"day": "monday", "start": "24:00", "end": "17:00"}}
	if _, err := timeSlotsField("availability", badHour); err == nil {
		t.Error("out-of-range hour accepted")
	}
}

func TestScalarFieldParsing(t *testing.T) {
	if f, err := floatField("height_CM", 180.5); err != nil || f != 180.5 {
		t.Errorf("float value = (%v, %v)", f, err)
	}
	if f, err := floatField("height_CM", "180.5"); err != nil || f != 180.5 {
		t.Errorf("float string = (%v, %v)", f, err)
	}
	if _, err := floatField("height_CM", "tall"); err == nil {
		t.Error("non-numeric string accepted")
	}

	if b, err := boolField("open24Hours", true); err != nil || !b {
		t.Errorf("bool value = (%v, %v)", b, err)
	}
	if b, err := boolField("open24Hours", "true"); err != nil || !b {
		t.Errorf("bool string = (%v, %v)", b, err)
	}
	if _, err := boolField("open24Hours", "maybe"); err == nil {
		t.Error("bad bool accepted")
	}

	if _, err := stringField("firstName", "x", 1); err != nil {
		t.Errorf("at-limit string rejected: %v", err)
	}
	if _, err := stringField("firstName", "xy", 1); err == nil {
		t.Error("over-limit string accepted")
	}

	list, err := stringListField("specialties", `["Cardiology","Oncology"]`)
	if err != nil || len(list) != 2 {
		t.Errorf("JSON list = (%v, %v)", list, err)
	}
	list, err = stringListField("specialties", []any{"Cardiology"})
	if err != nil || len(list) != 1 {
		t.Errorf("native list = (%v, %v)", list, err)
	}
	if _, err := stringListField("specialties", 42); err == nil {
		t.Error("number accepted as list")
	}
}
