package utils

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Password1!", false},
		{"valid special only", "ABCDabcd@", false},
		{"too short", "Pass1!", true},
		{"no uppercase", "password1!", true},
		{"no special", "Password123", true},
		{"invalid character", "Password1! space", true},
		{"invalid symbol", "Password1?", true},
		{"empty", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr && err == nil {
				t.Fatalf("ValidatePassword(%q) = nil, want error", tc.password)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ValidatePassword(%q) = %v, want nil", tc.password, err)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "user.name@example.com", "x+y@sub.domain.org"}
	invalid := []string{"", "plain", "a@b", "a b@c.com", "@x.com", "a@.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password1!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Password1!" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPasswordHash("Password1!", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("Password2!", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	if len(otp) != 6 {
		t.Fatalf("len = %d, want 6", len(otp))
	}
	if strings.Trim(otp, "0123456789") != "" {
		t.Fatalf("OTP %q contains non-digits", otp)
	}
}

func TestOTPHashRoundTrip(t *testing.T) {
	otp, err := GenerateOTP(6)
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	hash, err := HashOTP(otp)
	if err != nil {
		t.Fatalf("HashOTP: %v", err)
	}
	if !CheckPasswordHash(otp, hash) {
		t.Error("correct OTP rejected")
	}
	if CheckPasswordHash("000000", hash) && otp != "000000" {
		t.Error("wrong OTP accepted")
	}
}
