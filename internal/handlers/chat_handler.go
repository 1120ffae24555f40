package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/smartdoc-health/smartdoc-api/internal/middleware"
	"github.com/smartdoc-health/smartdoc-api/internal/models"
	"github.com/smartdoc-health/smartdoc-api/internal/services"
	"github.com/smartdoc-health/smartdoc-api/internal/utils"
)

func chatError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// chatServiceError maps service sentinels onto the response taxonomy.
func (h *Handler) chatServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		chatError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrSummaryNotFound), errors.Is(err, services.ErrDoctorNotFound):
		chatError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrNoMessages):
		chatError(c, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error().Err(err).Msg("chat request failed")
		chatError(c, http.StatusInternalServerError, "Failed to process message")
	}
}

type createSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession opens a fresh chat session for the caller.
func (h *Handler) CreateSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req createSessionRequest
	c.ShouldBindJSON(&req) // title is optional, an empty body is fine

	session, err := h.Chat.CreateSession(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session})
}

// GetUserSessions lists the caller's sessions. The path userId must match the
// authenticated account.
func (h *Handler) GetUserSessions(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if c.Param("userId") != user.ID.Hex() {
		chatError(c, http.StatusForbidden, "You can only view your own sessions")
		return
	}

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	sessions, err := h.Chat.GetUserSessions(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(sessions), "sessions": sessions})
}

type sendMessageRequest struct {
	SessionID   string                `json:"sessionId"`
	MessageType string                `json:"messageType"`
	Content     models.MessageContent `json:"content"`
}

// SendMessage runs a text turn through the assistant pipeline.
func (h *Handler) SendMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		chatError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.MessageType == "" {
		req.MessageType = models.MessageText
	}
	if req.MessageType != models.MessageText && req.MessageType != models.MessageAudio && req.MessageType != models.MessageImage {
		chatError(c, http.StatusBadRequest, "messageType must be text, audio or image")
		return
	}

	userMsg, aiMsg, session, err := h.Chat.SendMessage(c.Request.Context(), user.ID,
		req.SessionID, req.MessageType, req.Content, models.MessageMetadata{})
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"session":     session,
		"userMessage": userMsg,
		"aiMessage":   aiMsg,
	})
}

// SendAudioMessage accepts a multipart audio upload and runs the
// transcription pipeline.
func (h *Handler) SendAudioMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	file, dest, ok := h.saveChatUpload(c, "audio", utils.AudioDir)
	if !ok {
		return
	}

	metadata := models.MessageMetadata{
		AudioFormat: strings.TrimPrefix(filepath.Ext(file.Filename), "."),
	}
	userMsg, aiMsg, session, err := h.Chat.SendAudioMessage(c.Request.Context(), user.ID,
		c.PostForm("sessionId"), "/uploads/"+utils.AudioDir+"/"+filepath.Base(dest), dest, metadata)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"session":     session,
		"userMessage": userMsg,
		"aiMessage":   aiMsg,
	})
}

// SendImageMessage accepts a multipart image upload and runs the labeling
// pipeline. An optional caption rides along in the form field "text".
func (h *Handler) SendImageMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	file, dest, ok := h.saveChatUpload(c, "image", utils.ImagesDir)
	if !ok {
		return
	}

	metadata := models.MessageMetadata{
		ImageFormat: strings.TrimPrefix(filepath.Ext(file.Filename), "."),
		ImageSize:   file.Size,
	}
	userMsg, aiMsg, session, err := h.Chat.SendImageMessage(c.Request.Context(), user.ID,
		c.PostForm("sessionId"), "/uploads/"+utils.ImagesDir+"/"+filepath.Base(dest), dest,
		c.PostForm("text"), metadata)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"session":     session,
		"userMessage": userMsg,
		"aiMessage":   aiMsg,
	})
}

// saveChatUpload validates and stores a chat media upload, writing the error
// response itself on failure.
func (h *Handler) saveChatUpload(c *gin.Context, field, wantSubdir string) (*multipart.FileHeader, string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		chatError(c, http.StatusBadRequest, "File field "+field+" is required")
		return nil, "", false
	}
	if file.Size > utils.MaxUploadSize {
		chatError(c, http.StatusBadRequest, "File exceeds the 10MB upload limit")
		return nil, "", false
	}
	subdir, err := utils.UploadSubdir(file.Header.Get("Content-Type"))
	if err != nil || subdir != wantSubdir {
		chatError(c, http.StatusBadRequest, "Unsupported file type")
		return nil, "", false
	}

	dir := filepath.Join(h.UploadDir, subdir)
	if err := utils.EnsureDirectoryExists(dir); err != nil {
		chatError(c, http.StatusInternalServerError, "Failed to store file")
		return nil, "", false
	}
	dest := filepath.Join(dir, utils.GenerateUniqueFilename(file.Filename))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		chatError(c, http.StatusInternalServerError, "Failed to store file")
		return nil, "", false
	}
	return file, dest, true
}

// GetChatHistory returns a page of messages for one of the caller's sessions.
func (h *Handler) GetChatHistory(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, session, err := h.Chat.GetChatHistory(c.Request.Context(), user.ID,
		c.Param("sessionId"), limit, (page-1)*limit)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"session":  session,
		"count":    len(messages),
		"messages": messages,
	})
}

// DeleteSession soft deletes one of the caller's sessions.
func (h *Handler) DeleteSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if err := h.Chat.DeleteSession(c.Request.Context(), user.ID, c.Param("sessionId")); err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session deleted"})
}

type generateSummaryRequest struct {
	SessionIDs  []string `json:"sessionIds" binding:"required"`
	SummaryType string   `json:"summaryType" binding:"required"`
}

// GenerateSummary builds a medical summary over the caller's sessions.
func (h *Handler) GenerateSummary(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req generateSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.SessionIDs) == 0 {
		chatError(c, http.StatusBadRequest, "sessionIds and summaryType are required")
		return
	}
	switch req.SummaryType {
	case models.SummarySymptoms, models.SummaryMedicalHistory, models.SummaryConsultationNotes:
	default:
		chatError(c, http.StatusBadRequest, "summaryType must be symptoms, medical_history or consultation_notes")
		return
	}

	summary, err := h.Chat.GenerateSummary(c.Request.Context(), user.ID, req.SessionIDs, req.SummaryType)
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "summary": summary})
}

// GetUserSummaries lists the caller's summaries with optional status and
// summaryType filters.
func (h *Handler) GetUserSummaries(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	if c.Param("userId") != user.ID.Hex() {
		chatError(c, http.StatusForbidden, "You can only view your own summaries")
		return
	}

	summaries, err := h.Chat.GetUserSummaries(c.Request.Context(), user.ID,
		c.Query("status"), c.Query("summaryType"))
	if err != nil {
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(summaries), "summaries": summaries})
}

type sendToDoctorRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

// SendSummaryToDoctor shares one of the caller's summaries with a doctor.
func (h *Handler) SendSummaryToDoctor(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req sendToDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		chatError(c, http.StatusBadRequest, "doctorId is required")
		return
	}
	summaryID, err := primitive.ObjectIDFromHex(c.Param("summaryId"))
	if err != nil {
		chatError(c, http.StatusBadRequest, "Invalid summaryId")
		return
	}
	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		chatError(c, http.StatusBadRequest, "Invalid doctorId")
		return
	}

	summary, err := h.Chat.SendSummaryToDoctor(c.Request.Context(), user.ID, summaryID, doctorID)
	if err != nil {
		if errors.Is(err, services.ErrDoctorNotFound) {
			chatError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.chatServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}
