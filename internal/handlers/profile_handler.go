package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartdoc-health/smartdoc-api/internal/middleware"
	"github.com/smartdoc-health/smartdoc-api/internal/models"
	"github.com/smartdoc-health/smartdoc-api/internal/services"
	"github.com/smartdoc-health/smartdoc-api/internal/utils"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Mutable fields per account type. Anything outside the caller's set is
// rejected by name.
var (
	commonProfileFields = []string{
		"firstName", "lastName", "phoneNumber", "gender", "email",
		"address", "city", "state", "country", "postalCode",
		"currentPassword", "newPassword",
	}
	doctorProfileFields = append([]string{
		"specialization", "bio", "availability", "hospitalId", "status",
	}, commonProfileFields...)
	hospitalProfileFields = append([]string{
		"hospitalName", "registrationNumber", "website", "description",
		"specialties", "emergencyServices", "bedCapacity", "accreditation",
		"open24Hours", "schedule", "status",
	}, commonProfileFields...)
	patientProfileFields = append([]string{
		"dateOfBirth", "emergencyContactName", "emergencyContactPhoneNumber",
		"emergencyContactRelationship", "bloodGroup", "height_CM", "weight_KG",
		"preferredLanguage", "insuranceProvider", "insurancePolicyNumber",
	}, commonProfileFields...)
)

func allowedProfileFields(userType string) []string {
	switch userType {
	case models.TypeDoctor:
		return doctorProfileFields
	case models.TypeHospital:
		return hospitalProfileFields
	case models.TypePatient:
		return patientProfileFields
	default:
		return commonProfileFields
	}
}

// GetSignedInProfile returns the caller's own account.
func (h *Handler) GetSignedInProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetProfileByEmail looks up any account by email.
func (h *Handler) GetProfileByEmail(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	var user models.User
	err := h.DB.Collection(models.UsersCollection).
		FindOne(c.Request.Context(), bson.M{"email": email}).
		Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetAllProfiles lists every account. Admin only.
func (h *Handler) GetAllProfiles(c *gin.Context) {
	h.listUsers(c, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, nil)
}

// GetDoctors lists doctor accounts with public fields only.
func (h *Handler) GetDoctors(c *gin.Context) {
	projection := bson.M{
		"email": 1, "firstName": 1, "lastName": 1, "phoneNumber": 1,
		"specialization": 1, "bio": 1, "availability": 1, "hospitalId": 1,
		"status": 1, "type": 1,
	}
	h.listUsers(c, bson.M{"type": models.TypeDoctor}, bson.D{{Key: "firstName", Value: 1}}, projection)
}

// GetHospitals lists hospital accounts with public fields only.
func (h *Handler) GetHospitals(c *gin.Context) {
	projection := bson.M{
		"email": 1, "hospitalName": 1, "phoneNumber": 1, "website": 1,
		"description": 1, "specialties": 1, "emergencyServices": 1,
		"bedCapacity": 1, "open24Hours": 1, "schedule": 1, "address": 1,
		"city": 1, "state": 1, "country": 1, "type": 1,
	}
	h.listUsers(c, bson.M{"type": models.TypeHospital}, bson.D{{Key: "hospitalName", Value: 1}}, projection)
}

// GetPatients lists patient accounts. Doctor, hospital and admin only.
func (h *Handler) GetPatients(c *gin.Context) {
	projection := bson.M{
		"email": 1, "firstName": 1, "lastName": 1, "phoneNumber": 1,
		"gender": 1, "dateOfBirth": 1, "bloodGroup": 1, "type": 1,
	}
	h.listUsers(c, bson.M{"type": models.TypePatient}, bson.D{{Key: "firstName", Value: 1}}, projection)
}

func (h *Handler) listUsers(c *gin.Context, filter bson.M, sort bson.D, projection bson.M) {
	opts := options.Find().SetSort(sort)
	if projection != nil {
		opts.SetProjection(projection)
	}
	cursor, err := h.DB.Collection(models.UsersCollection).Find(c.Request.Context(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(c.Request.Context())

	users := make([]models.User, 0)
	if err := cursor.All(c.Request.Context(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// UpdateProfile applies a partial update to the caller's own account. Fields
// are gated by the caller's account type, then validated one by one. Hospital
// callers may attach a roster document; anyone else sending one is rejected.
func (h *Handler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	fields, file, err := readProfileUpdate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(fields) == 0 && file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided"})
		return
	}
	if file != nil && user.Type != models.TypeHospital {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only hospitals can upload a document"})
		return
	}

	allowed := allowedProfileFields(user.Type)
	for name := range fields {
		if !contains(allowed, name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Field %q cannot be updated for this account type", name)})
			return
		}
	}

	ctx := c.Request.Context()
	set, err := h.buildProfileUpdate(ctx, user, fields)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rosterReport *services.RosterReport
	if file != nil {
		report, docPath, err := h.attachHospitalDocument(c, user, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		set["document"] = docPath
		rosterReport = report
	}

	if len(set) > 0 {
		set["updatedAt"] = time.Now()
		_, err = h.DB.Collection(models.UsersCollection).UpdateOne(ctx,
			bson.M{"_id": user.ID}, bson.M{"$set": set})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	var updated models.User
	if err := h.DB.Collection(models.UsersCollection).
		FindOne(ctx, bson.M{"_id": user.ID}).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated profile"})
		return
	}

	resp := gin.H{"message": "Profile updated successfully", "user": updated}
	if rosterReport != nil {
		resp["roster"] = rosterReport
	}
	c.JSON(http.StatusOK, resp)
}

// readProfileUpdate extracts the update fields and the optional document file
// from either a JSON or a multipart request.
func readProfileUpdate(c *gin.Context) (map[string]any, *multipart.FileHeader, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fields := map[string]any{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			return nil, nil, errors.New("Invalid request body")
		}
		return fields, nil, nil
	}

	if err := c.Request.ParseMultipartForm(utils.MaxUploadSize); err != nil {
		return nil, nil, errors.New("Invalid multipart form")
	}
	fields := map[string]any{}
	for name, values := range c.Request.PostForm {
		if len(values) == 0 {
			continue
		}
		fields[name] = values[0]
	}
	file, err := c.FormFile("document")
	if err != nil {
		file = nil
	}
	return fields, file, nil
}

// buildProfileUpdate validates each submitted field and produces the $set
// document. Multipart values arrive as strings, so scalar fields parse both
// representations.
func (h *Handler) buildProfileUpdate(ctx context.Context, user *models.User, fields map[string]any) (bson.M, error) {
	set := bson.M{}

	// Password change needs both halves.
	_, hasCurrent := fields["currentPassword"]
	_, hasNew := fields["newPassword"]
	if hasCurrent != hasNew {
		return nil, errors.New("currentPassword and newPassword must be provided together")
	}
	if hasCurrent {
		current, _ := fields["currentPassword"].(string)
		next, _ := fields["newPassword"].(string)
		if !utils.CheckPasswordHash(current, user.Password) {
			return nil, errors.New("Current password is incorrect")
		}
		if err := utils.ValidatePassword(next); err != nil {
			return nil, err
		}
		hashed, err := utils.HashPassword(next)
		if err != nil {
			return nil, err
		}
		set["password"] = hashed
		delete(fields, "currentPassword")
		delete(fields, "newPassword")
	}

	for name, value := range fields {
		switch name {
		case "firstName", "lastName", "city", "state", "country", "preferredLanguage",
			"emergencyContactName", "emergencyContactRelationship", "accreditation",
			"insuranceProvider", "insurancePolicyNumber", "specialization", "hospitalName":
			s, err := stringField(name, value, 100)
			if err != nil {
				return nil, err
			}
			set[name] = s
		case "address", "website":
			s, err := stringField(name, value, 200)
			if err != nil {
				return nil, err
			}
			set[name] = s
		case "bio", "description":
			s, err := stringField(name, value, 1000)
			if err != nil {
				return nil, err
			}
			set[name] = s
		case "postalCode":
			s, err := stringField(name, value, 20)
			if err != nil {
				return nil, err
			}
			set[name] = s
		case "phoneNumber", "emergencyContactPhoneNumber":
			s, err := stringField(name, value, 20)
			if err != nil {
				return nil, err
			}
			set[name] = s
		case "email":
			s, _ := value.(string)
			s = strings.ToLower(strings.TrimSpace(s))
			if !utils.ValidEmail(s) {
				return nil, errors.New("Please provide a valid email address")
			}
			n, err := h.DB.Collection(models.UsersCollection).
				CountDocuments(ctx, bson.M{"email": s, "_id": bson.M{"$ne": user.ID}})
			if err != nil {
				return nil, errors.New("Database error")
			}
			if n > 0 {
				return nil, errors.New("An account with this email already exists")
			}
			set["email"] = s
		case "gender":
			s, _ := value.(string)
			if !contains(models.Genders, s) {
				return nil, errors.New("Invalid gender")
			}
			set[name] = s
		case "bloodGroup":
			s, _ := value.(string)
			if !contains(models.BloodGroups, s) {
				return nil, errors.New("Invalid blood group")
			}
			set[name] = s
		case "status":
			s, _ := value.(string)
			if s != models.StatusActive && s != models.StatusInactive {
				return nil, errors.New("Status must be active or inactive")
			}
			set[name] = s
		case "dateOfBirth":
			s, _ := value.(string)
			dob, err := time.Parse("2006-01-02", s)
			if err != nil {
				dob, err = time.Parse(time.RFC3339, s)
			}
			if err != nil {
				return nil, errors.New("Invalid dateOfBirth, use YYYY-MM-DD")
			}
			if dob.After(time.Now()) {
				return nil, errors.New("dateOfBirth cannot be in the future")
			}
			set[name] = dob
		case "height_CM":
			f, err := floatField(name, value)
			if err != nil {
				return nil, err
			}
			if f <= 0 || f > 300 {
				return nil, errors.New("height_CM must be between 0 and 300")
			}
			set[name] = f
		case "weight_KG":
			f, err := floatField(name, value)
			if err != nil {
				return nil, err
			}
			if f <= 0 || f > 1000 {
				return nil, errors.New("weight_KG must be between 0 and 1000")
			}
			set[name] = f
		case "bedCapacity":
			f, err := floatField(name, value)
			if err != nil {
				return nil, err
			}
			if f < 0 || f != float64(int(f)) {
				return nil, errors.New("bedCapacity must be a non-negative integer")
			}
			set[name] = int(f)
		case "emergencyServices", "open24Hours":
			b, err := boolField(name, value)
			if err != nil {
				return nil, err
			}
			set[name] = b
		case "specialties":
			list, err := stringListField(name, value)
			if err != nil {
				return nil, err
			}
			set[name] = list
		case "availability", "schedule":
			slots, err := timeSlotsField(name, value)
			if err != nil {
				return nil, err
			}
			set[name] = slots
		case "hospitalId":
			s, _ := value.(string)
			hospitalID, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, errors.New("Invalid hospitalId")
			}
			n, err := h.DB.Collection(models.UsersCollection).
				CountDocuments(ctx, bson.M{"_id": hospitalID, "type": models.TypeHospital})
			if err != nil || n == 0 {
				return nil, errors.New("Hospital not found")
			}
			set[name] = hospitalID
		case "registrationNumber":
			s, err := stringField(name, value, 100)
			if err != nil {
				return nil, err
			}
			n, err := h.DB.Collection(models.UsersCollection).CountDocuments(ctx,
				bson.M{"registrationNumber": s, "type": models.TypeHospital, "_id": bson.M{"$ne": user.ID}})
			if err != nil {
				return nil, errors.New("Database error")
			}
			if n > 0 {
				return nil, errors.New("A hospital with this registration number already exists")
			}
			set[name] = s
		default:
			return nil, fmt.Errorf("Field %q cannot be updated", name)
		}
	}
	return set, nil
}

// attachHospitalDocument stores the uploaded roster, replaces any previous
// document and bulk-creates doctor accounts from its rows. The saved file is
// removed again when parsing fails.
func (h *Handler) attachHospitalDocument(c *gin.Context, hospital *models.User, file *multipart.FileHeader) (*services.RosterReport, string, error) {
	if file.Size > utils.MaxUploadSize {
		return nil, "", errors.New("File exceeds the 10MB upload limit")
	}
	contentType := file.Header.Get("Content-Type")
	subdir, err := utils.UploadSubdir(contentType)
	if err != nil || subdir != utils.DocumentDir {
		return nil, "", errors.New("Only .csv and .xlsx roster files are allowed")
	}

	name := utils.GenerateUniqueFilename(file.Filename)
	dir := filepath.Join(h.UploadDir, utils.DocumentDir)
	if err := utils.EnsureDirectoryExists(dir); err != nil {
		return nil, "", errors.New("Failed to store document")
	}
	dest := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		return nil, "", errors.New("Failed to store document")
	}

	var rows []services.RosterRow
	src, err := file.Open()
	if err == nil {
		defer src.Close()
		if strings.EqualFold(filepath.Ext(file.Filename), ".csv") || strings.Contains(contentType, "csv") {
			rows, err = services.ParseRosterCSV(src)
		} else {
			rows, err = services.ParseRosterXLSX(src)
		}
	}
	if err != nil {
		utils.DeleteFile(dest)
		return nil, "", fmt.Errorf("Failed to parse roster: %v", err)
	}

	report, err := h.Roster.ImportDoctors(c.Request.Context(), hospital, rows)
	if err != nil {
		utils.DeleteFile(dest)
		return nil, "", errors.New("Failed to import roster")
	}

	if hospital.Document != "" {
		utils.DeleteFile(hospital.Document)
	}
	return report, dest, nil
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UpdateFCMToken stores the caller's device registration token for push
// notifications.
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	_, err := h.DB.Collection(models.UsersCollection).UpdateOne(c.Request.Context(),
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"fcmToken": req.Token, "updatedAt": time.Now()}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func stringField(name string, value any, maxLen int) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return "", fmt.Errorf("%s must be at most %d characters", name, maxLen)
	}
	return s, nil
}

func floatField(name string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func boolField(name string, value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%s must be a boolean", name)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%s must be a boolean", name)
	}
}

func stringListField(name string, value any) ([]string, error) {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a list of strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%s must be a JSON array of strings", name)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings", name)
	}
}

func timeSlotsField(name string, value any) ([]models.TimeSlot, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s", name)
	}
	if s, ok := value.(string); ok {
		raw = []byte(s)
	}
	var slots []models.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, fmt.Errorf("%s must be a list of {day, start, end}", name)
	}
	for _, slot := range slots {
		if !contains(models.WeekDays, strings.ToLower(slot.Day)) {
			return nil, fmt.Errorf("%s contains an invalid day %q", name, slot.Day)
		}
		if !timeOfDayPattern.MatchString(slot.Start) || !timeOfDayPattern.MatchString(slot.End) {
			return nil, fmt.Errorf("%s times must be HH:MM", name)
		}
	}
	return slots, nil
}
