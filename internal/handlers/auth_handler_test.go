package handlers

import (
	"net/http"
	"testing"

	"github.com/smartdoc-health/smartdoc-api/internal/models"
)

func TestSignInGate(t *testing.T) {
	verified := &models.User{EmailVerified: true, Status: models.StatusActive}
	unverified := &models.User{EmailVerified: false, Status: models.StatusPending}
	suspended := &models.User{EmailVerified: true, Status: models.StatusSuspended}

	cases := []struct {
		name       string
		user       *models.User
		found      bool
		passwordOK bool
		status     int
		message    string
	}{
		{"unknown email", &models.User{}, false, false, http.StatusBadRequest, "Invalid username or password"},
		{"wrong password", verified, true, false, http.StatusBadRequest, "Invalid username or password"},
		{"unverified with right password", unverified, true, true, http.StatusBadRequest, "Please verify your email before signing in"},
		{"unverified with wrong password", unverified, true, false, http.StatusBadRequest, "Invalid username or password"},
		{"suspended", suspended, true, true, http.StatusForbidden, "Account is suspended"},
		{"valid", verified, true, true, 0, ""},
	}
	for _, tc := range cases {
		status, msg := signInGate(tc.user, tc.found, tc.passwordOK)
		if status != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.name, status, tc.status)
		}
		if msg != tc.message {
			t.Errorf("%s: message = %q, want %q", tc.name, msg, tc.message)
		}
	}
}

// An unverified account must observe 400 no matter what password it sends.
func TestSignInGateUnverifiedAlways400(t *testing.T) {
	user := &models.User{EmailVerified: false, Status: models.StatusPending}
	for _, passwordOK := range []bool{true, false} {
		if status, _ := signInGate(user, true, passwordOK); status != http.StatusBadRequest {
			t.Errorf("passwordOK=%v: status = %d, want 400", passwordOK, status)
		}
	}
}
