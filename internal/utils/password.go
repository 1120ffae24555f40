package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// HashPassword hashes a given password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with its hashed version.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidEmail reports whether the address passes the registration format check.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword enforces the account password rule: at least 8 characters,
// one uppercase letter, one of !@#$%^&*, and nothing outside letters, digits
// and that special set.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters long")
	}
	var hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case strings.ContainsRune("!@#$%^&*", r):
			hasSpecial = true
		default:
			return errors.New("Password contains invalid characters")
		}
	}
	if !hasUpper || !hasSpecial {
		return errors.New("Password must contain at least one uppercase letter and one special character.")
	}
	return nil
}

// GenerateOTP returns a numeric one-time code of the given length.
func GenerateOTP(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashOTP hashes a one-time code for storage; codes are compared with
// CheckPasswordHash like passwords.
func HashOTP(otp string) (string, error) {
	return HashPassword(otp)
}
