package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartdoc-health/smartdoc-api/internal/models"
	"github.com/smartdoc-health/smartdoc-api/internal/utils"
)

const (
	otpLength         = 6
	otpLifetime       = 30 * time.Minute
	resetOTPLifetime  = time.Hour
	tokenCookieMaxAge = 15 * 24 * 60 * 60 // matches the JWT lifetime
)

type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Gender      string `json:"gender"`

	// Doctor
	HospitalID     string `json:"hospitalId"`
	Specialization string `json:"specialization"`

	// Hospital
	HospitalName       string `json:"hospitalName"`
	RegistrationNumber string `json:"registrationNumber"`
	Website            string `json:"website"`
}

// RegisterPatient creates a patient account and emails a verification code.
func (h *Handler) RegisterPatient(c *gin.Context) {
	h.register(c, models.TypePatient)
}

// RegisterDoctor creates a doctor account tied to an existing hospital.
func (h *Handler) RegisterDoctor(c *gin.Context) {
	h.register(c, models.TypeDoctor)
}

// RegisterHospital creates a hospital account. The registration number must
// be unique across hospitals.
func (h *Handler) RegisterHospital(c *gin.Context) {
	h.register(c, models.TypeHospital)
}

// RegisterAdmin creates an admin account.
func (h *Handler) RegisterAdmin(c *gin.Context) {
	h.register(c, models.TypeAdmin)
}

func (h *Handler) register(c *gin.Context, userType string) {
	req, err := bindRegister(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.ValidEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a valid email address"})
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	users := h.DB.Collection(models.UsersCollection)

	count, err := users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	role, err := models.FindRole(ctx, h.DB, userType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve role"})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now()
	user := models.User{
		ID:          primitive.NewObjectID(),
		Email:       email,
		Password:    hashed,
		RoleID:      role.ID,
		Type:        userType,
		Status:      models.StatusPending,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch userType {
	case models.TypeDoctor:
		if req.HospitalID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hospitalId is required for doctor registration"})
			return
		}
		hospitalID, err := primitive.ObjectIDFromHex(req.HospitalID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hospitalId"})
			return
		}
		n, err := users.CountDocuments(ctx, bson.M{"_id": hospitalID, "type": models.TypeHospital})
		if err != nil || n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Hospital not found"})
			return
		}
		user.HospitalID = hospitalID
		user.Specialization = req.Specialization
	case models.TypeHospital:
		if req.HospitalName == "" || req.RegistrationNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hospitalName and registrationNumber are required"})
			return
		}
		n, err := users.CountDocuments(ctx, bson.M{"registrationNumber": req.RegistrationNumber, "type": models.TypeHospital})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
		if n > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "A hospital with this registration number already exists"})
			return
		}
		user.HospitalName = req.HospitalName
		user.RegistrationNumber = req.RegistrationNumber
		user.Website = req.Website
	}

	if _, err := users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if err := h.issueVerificationOTP(ctx, &user); err != nil {
		// The account exists; the user recovers with resend-otp.
		h.Log.Error().Err(err).Str("email", email).Msg("failed to issue verification code")
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	resp := gin.H{
		"message": "Registration successful. Please check your email for the verification code.",
		"token":   token,
		"user":    user,
	}

	// Hospitals may attach a doctor roster at registration time.
	if userType == models.TypeHospital {
		if file, ferr := c.FormFile("document"); ferr == nil {
			report, docPath, derr := h.attachHospitalDocument(c, &user, file)
			if derr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": derr.Error()})
				return
			}
			h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
				bson.M{"_id": user.ID},
				bson.M{"$set": bson.M{"document": docPath, "updatedAt": time.Now()}})
			user.Document = docPath
			resp["roster"] = report
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// bindRegister reads the registration payload from either JSON or a
// multipart form (the hospital flow with a roster attachment).
func bindRegister(c *gin.Context) (*registerRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req := &registerRequest{
			Email:              c.PostForm("email"),
			Password:           c.PostForm("password"),
			FirstName:          c.PostForm("firstName"),
			LastName:           c.PostForm("lastName"),
			PhoneNumber:        c.PostForm("phoneNumber"),
			Gender:             c.PostForm("gender"),
			HospitalID:         c.PostForm("hospitalId"),
			Specialization:     c.PostForm("specialization"),
			HospitalName:       c.PostForm("hospitalName"),
			RegistrationNumber: c.PostForm("registrationNumber"),
			Website:            c.PostForm("website"),
		}
		if req.Email == "" || req.Password == "" {
			return nil, errors.New("email and password are required")
		}
		return req, nil
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// issueVerificationOTP replaces any live code for the user and emails a fresh
// one. The plaintext code only ever exists in the email.
func (h *Handler) issueVerificationOTP(ctx context.Context, user *models.User) error {
	otps := h.DB.Collection(models.OTPCollection)
	if _, err := otps.DeleteMany(ctx, bson.M{"userId": user.ID}); err != nil {
		return err
	}

	code, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return err
	}
	hashed, err := utils.HashOTP(code)
	if err != nil {
		return err
	}

	now := time.Now()
	record := models.OTPVerification{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		OTP:       hashed,
		CreatedAt: now,
		ExpiresAt: now.Add(otpLifetime),
	}
	if _, err := otps.InsertOne(ctx, record); err != nil {
		return err
	}

	go func(to, firstName, code string) {
		if err := h.Email.SendVerificationOTP(to, firstName, code); err != nil {
			h.Log.Error().Err(err).Str("email", to).Msg("failed to send verification email")
		}
	}(user.Email, user.FirstName, code)
	return nil
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// VerifyOTP confirms the emailed code, activates the account and deletes the
// code record.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}

	ctx := c.Request.Context()
	user, ok := h.findUserByEmail(c, ctx, req.Email)
	if !ok {
		return
	}
	if user.EmailVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}

	var record models.OTPVerification
	err := h.DB.Collection(models.OTPCollection).
		FindOne(ctx, bson.M{"userId": user.ID}).
		Decode(&record)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No verification code found. Please request a new one."})
		return
	}
	if time.Now().After(record.ExpiresAt) {
		h.DB.Collection(models.OTPCollection).DeleteMany(ctx, bson.M{"userId": user.ID})
		c.JSON(http.StatusBadRequest, gin.H{"error": "OTP has expired. Please request a new one."})
		return
	}
	if !utils.CheckPasswordHash(req.OTP, record.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}

	_, err = h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"emailVerified": true, "status": models.StatusActive, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	h.DB.Collection(models.OTPCollection).DeleteMany(ctx, bson.M{"userId": user.ID})

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

type resendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResendOTP issues a fresh verification code for an unverified account.
func (h *Handler) ResendOTP(c *gin.Context) {
	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	if !utils.ValidEmail(strings.ToLower(strings.TrimSpace(req.Email))) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide a valid email address"})
		return
	}

	ctx := c.Request.Context()
	user, ok := h.findUserByEmail(c, ctx, req.Email)
	if !ok {
		return
	}
	if user.EmailVerified {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already verified"})
		return
	}
	if err := h.issueVerificationOTP(ctx, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// signInGate decides whether a sign-in attempt may proceed. It returns the
// rejection status and message, or 0 when the attempt passes every check.
// Unknown emails and wrong passwords share one 400 so the response does not
// leak which part was wrong, and unverified accounts get 400 whether or not
// the password matched.
func signInGate(user *models.User, found, passwordOK bool) (int, string) {
	if !found || !passwordOK {
		return http.StatusBadRequest, "Invalid username or password"
	}
	if !user.EmailVerified {
		return http.StatusBadRequest, "Please verify your email before signing in"
	}
	if user.Status == models.StatusSuspended {
		return http.StatusForbidden, "Account is suspended"
	}
	return 0, ""
}

// SignIn checks credentials and returns a JWT both in the body and as an
// httpOnly cookie for browser clients.
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	ctx := c.Request.Context()
	var user models.User
	err := h.DB.Collection(models.UsersCollection).
		FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).
		Decode(&user)
	found := err == nil
	passwordOK := found && utils.CheckPasswordHash(req.Password, user.Password)
	if status, msg := signInGate(&user, found, passwordOK); status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	now := time.Now()
	h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastLoginAt": now}})
	user.LastLoginAt = &now

	c.SetCookie("token", token, tokenCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// SignOut clears the token cookie.
func (h *Handler) SignOut(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword emails a reset code, stored hashed on the user document with
// a one hour expiry.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	ctx := c.Request.Context()
	user, ok := h.findUserByEmail(c, ctx, req.Email)
	if !ok {
		return
	}

	code, err := utils.GenerateOTP(otpLength)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset code"})
		return
	}
	hashed, err := utils.HashOTP(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset code"})
		return
	}

	expiry := time.Now().Add(resetOTPLifetime)
	_, err = h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"resetPasswordToken": hashed, "resetPasswordExpiry": expiry}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reset request"})
		return
	}

	go func(to, firstName, code string) {
		if err := h.Email.SendPasswordResetOTP(to, firstName, code); err != nil {
			h.Log.Error().Err(err).Str("email", to).Msg("failed to send password reset email")
		}
	}(user.Email, user.FirstName, code)

	c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent to your email"})
}

type resetPasswordRequest struct {
	Email              string `json:"email" binding:"required"`
	OTP                string `json:"otp" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}

// ResetPassword sets a new password after checking the emailed reset code.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, OTP, newPassword and confirmNewPassword are required"})
		return
	}
	if req.NewPassword != req.ConfirmNewPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, ok := h.findUserByEmail(c, ctx, req.Email)
	if !ok {
		return
	}
	if user.ResetPasswordToken == "" || user.ResetPasswordExpiry == nil ||
		time.Now().After(*user.ResetPasswordExpiry) ||
		!utils.CheckPasswordHash(req.OTP, user.ResetPasswordToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset code"})
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	_, err = h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":   bson.M{"password": hashed, "updatedAt": time.Now()},
			"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpiry": ""},
		})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// findUserByEmail loads the account or writes the 404 itself.
func (h *Handler) findUserByEmail(c *gin.Context, ctx context.Context, email string) (*models.User, bool) {
	var user models.User
	err := h.DB.Collection(models.UsersCollection).
		FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).
		Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	return &user, true
}
