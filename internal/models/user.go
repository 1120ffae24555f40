package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types. A single users collection holds all four kinds of account;
// the Type field decides which of the role-specific fields are meaningful.
const (
	TypeAdmin    = "Admin"
	TypeHospital = "Hospital"
	TypeDoctor   = "Doctor"
	TypePatient  = "Patient"
)

// Account statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusPending   = "pending"
)

var (
	Genders     = []string{"Male", "Female", "Other"}
	BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	WeekDays    = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// TimeSlot is a weekday plus a start/end pair, used for both hospital opening
// schedules and doctor availability.
type TimeSlot struct {
	Day   string `bson:"day" json:"day"`
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// User is the polymorphic account document. Shared fields come first, then the
// doctor, hospital and patient sections; unused sections are omitted from the
// stored document via omitempty.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password" json:"-"` // Hide from JSON responses
	RoleID        primitive.ObjectID `bson:"role,omitempty" json:"roleId,omitempty"`
	Type          string             `bson:"type" json:"type"`
	Status        string             `bson:"status,omitempty" json:"status,omitempty"`
	EmailVerified bool               `bson:"emailVerified" json:"emailVerified"`

	FirstName   string `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName    string `bson:"lastName,omitempty" json:"lastName,omitempty"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Gender      string `bson:"gender,omitempty" json:"gender,omitempty"`

	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`

	// Doctor
	HospitalID     primitive.ObjectID `bson:"hospitalId,omitempty" json:"hospitalId,omitempty"`
	Specialization string             `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Bio            string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Availability   []TimeSlot         `bson:"availability,omitempty" json:"availability,omitempty"`
	FCMToken       string             `bson:"fcmToken,omitempty" json:"-"`

	// Hospital
	HospitalName       string     `bson:"hospitalName,omitempty" json:"hospitalName,omitempty"`
	RegistrationNumber string     `bson:"registrationNumber,omitempty" json:"registrationNumber,omitempty"`
	Website            string     `bson:"website,omitempty" json:"website,omitempty"`
	Description        string     `bson:"description,omitempty" json:"description,omitempty"`
	Specialties        []string   `bson:"specialties,omitempty" json:"specialties,omitempty"`
	EmergencyServices  bool       `bson:"emergencyServices,omitempty" json:"emergencyServices,omitempty"`
	BedCapacity        int        `bson:"bedCapacity,omitempty" json:"bedCapacity,omitempty"`
	Accreditation      string     `bson:"accreditation,omitempty" json:"accreditation,omitempty"`
	Open24Hours        bool       `bson:"open24Hours,omitempty" json:"open24Hours,omitempty"`
	Schedule           []TimeSlot `bson:"schedule,omitempty" json:"schedule,omitempty"`
	Document           string     `bson:"document,omitempty" json:"document,omitempty"`

	// Patient
	DateOfBirth                  *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	EmergencyContactName         string     `bson:"emergencyContactName,omitempty" json:"emergencyContactName,omitempty"`
	EmergencyContactPhoneNumber  string     `bson:"emergencyContactPhoneNumber,omitempty" json:"emergencyContactPhoneNumber,omitempty"`
	EmergencyContactRelationship string     `bson:"emergencyContactRelationship,omitempty" json:"emergencyContactRelationship,omitempty"`
	BloodGroup                   string     `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	HeightCM                     float64    `bson:"height_CM,omitempty" json:"height_CM,omitempty"`
	WeightKG                     float64    `bson:"weight_KG,omitempty" json:"weight_KG,omitempty"`
	PreferredLanguage            string     `bson:"preferredLanguage,omitempty" json:"preferredLanguage,omitempty"`
	InsuranceProvider            string     `bson:"insuranceProvider,omitempty" json:"insuranceProvider,omitempty"`
	InsurancePolicyNumber        string     `bson:"insurancePolicyNumber,omitempty" json:"insurancePolicyNumber,omitempty"`

	ResetPasswordToken  string     `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpiry *time.Time `bson:"resetPasswordExpiry,omitempty" json:"-"`
	LastLoginAt         *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Role is seeded once at startup and immutable thereafter.
type Role struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// OTPVerification holds a bcrypt-hashed one-time code for email verification.
// At most one live record per user; a resend deletes stale records first.
type OTPVerification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	OTP       string             `bson:"otp" json:"-"` // hashed
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
}

// Notification types.
const (
	NotificationSummaryShared = "summary_shared"
	NotificationAppointment   = "appointment"
	NotificationMessage       = "message"
)

// Notification is written when a summary is shared with a doctor.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	Type        string             `bson:"type" json:"type"`
	Title       string             `bson:"title" json:"title"`
	Message     string             `bson:"message" json:"message"`
	Data        map[string]string  `bson:"data,omitempty" json:"data,omitempty"`
	IsRead      bool               `bson:"isRead" json:"isRead"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
