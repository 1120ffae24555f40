package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartdoc-health/smartdoc-api/internal/models"
)

// DefaultSessionTitle names sessions created implicitly by the first message.
const DefaultSessionTitle = "New Medical Consultation"

var (
	ErrSessionNotFound = errors.New("Chat session not found")
	ErrSummaryNotFound = errors.New("Summary not found")
	ErrDoctorNotFound  = errors.New("Doctor not found")
	ErrEmptyMessage    = errors.New("Message content is required")
	ErrNoMessages      = errors.New("No messages found for the selected sessions")
)

// ChatService owns the consultation flow: sessions, the user/assistant message
// pipeline, medical summaries and sharing them with doctors.
type ChatService struct {
	DB   *mongo.Database
	AI   *AIService
	Push *PushService
	log  zerolog.Logger
}

func NewChatService(db *mongo.Database, ai *AIService, push *PushService, log zerolog.Logger) *ChatService {
	return &ChatService{DB: db, AI: ai, Push: push, log: log}
}

// CreateSession opens a new chat session for the user.
func (s *ChatService) CreateSession(ctx context.Context, userID primitive.ObjectID, title string) (*models.ChatSession, error) {
	if title == "" {
		title = DefaultSessionTitle
	}
	now := time.Now()
	session := models.ChatSession{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		SessionID: uuid.NewString(),
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.DB.Collection(models.ChatSessionsCollection).InsertOne(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// findOrCreateSession resolves sessionID for the user, creating a fresh
// session when the id is empty.
func (s *ChatService) findOrCreateSession(ctx context.Context, userID primitive.ObjectID, sessionID string) (*models.ChatSession, error) {
	if sessionID == "" {
		return s.CreateSession(ctx, userID, "")
	}
	var session models.ChatSession
	err := s.DB.Collection(models.ChatSessionsCollection).
		FindOne(ctx, bson.M{"sessionId": sessionID, "userId": userID, "isActive": true}).
		Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SendMessage runs a text turn: persist the user message, get the assistant
// reply, persist it, and bump the session counters by two.
func (s *ChatService) SendMessage(ctx context.Context, userID primitive.ObjectID, sessionID, messageType string, content models.MessageContent, metadata models.MessageMetadata) (*models.Message, *models.Message, *models.ChatSession, error) {
	query := extractQuery(messageType, content)
	if query == "" {
		return nil, nil, nil, ErrEmptyMessage
	}

	session, err := s.findOrCreateSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	if metadata.ProcessingStatus == "" {
		metadata.ProcessingStatus = models.ProcessingCompleted
	}
	userMsg, err := s.insertUserMessage(ctx, session, messageType, content, metadata)
	if err != nil {
		return nil, nil, nil, err
	}

	aiMsg, err := s.completeTurn(ctx, session, userID, query)
	if err != nil {
		return nil, nil, nil, err
	}
	return userMsg, aiMsg, session, nil
}

// SendAudioMessage persists a pending audio message, backfills its transcript
// from the transcription collaborator and then runs the assistant turn. A
// transcription failure flips the message to failed status and aborts.
func (s *ChatService) SendAudioMessage(ctx context.Context, userID primitive.ObjectID, sessionID, audioURL, filePath string, metadata models.MessageMetadata) (*models.Message, *models.Message, *models.ChatSession, error) {
	session, err := s.findOrCreateSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	metadata.ProcessingStatus = models.ProcessingPending
	userMsg, err := s.insertUserMessage(ctx, session, models.MessageAudio,
		models.MessageContent{AudioURL: audioURL}, metadata)
	if err != nil {
		return nil, nil, nil, err
	}

	transcript, err := s.AI.Transcribe(ctx, filePath)
	if err != nil {
		s.failMessage(ctx, userMsg.ID)
		return nil, nil, nil, err
	}
	userMsg.Content.AudioTranscript = transcript
	userMsg.Metadata.ProcessingStatus = models.ProcessingCompleted
	if err := s.backfillMessage(ctx, userMsg.ID, bson.M{
		"content.audioTranscript":   transcript,
		"metadata.processingStatus": models.ProcessingCompleted,
	}); err != nil {
		return nil, nil, nil, err
	}

	aiMsg, err := s.completeTurn(ctx, session, userID, transcript)
	if err != nil {
		return nil, nil, nil, err
	}
	return userMsg, aiMsg, session, nil
}

// SendImageMessage is the image counterpart of SendAudioMessage; the
// labeling collaborator backfills the description and the optional caption is
// prepended to the query.
func (s *ChatService) SendImageMessage(ctx context.Context, userID primitive.ObjectID, sessionID, imageURL, filePath, caption string, metadata models.MessageMetadata) (*models.Message, *models.Message, *models.ChatSession, error) {
	session, err := s.findOrCreateSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}

	metadata.ProcessingStatus = models.ProcessingPending
	userMsg, err := s.insertUserMessage(ctx, session, models.MessageImage,
		models.MessageContent{ImageURL: imageURL, Text: caption}, metadata)
	if err != nil {
		return nil, nil, nil, err
	}

	description, err := s.AI.AnalyzeImage(ctx, filePath)
	if err != nil {
		s.failMessage(ctx, userMsg.ID)
		return nil, nil, nil, err
	}
	userMsg.Content.ImageDescription = description
	userMsg.Metadata.ProcessingStatus = models.ProcessingCompleted
	if err := s.backfillMessage(ctx, userMsg.ID, bson.M{
		"content.imageDescription":  description,
		"metadata.processingStatus": models.ProcessingCompleted,
	}); err != nil {
		return nil, nil, nil, err
	}

	aiMsg, err := s.completeTurn(ctx, session, userID, extractQuery(models.MessageImage, userMsg.Content))
	if err != nil {
		return nil, nil, nil, err
	}
	return userMsg, aiMsg, session, nil
}

func (s *ChatService) insertUserMessage(ctx context.Context, session *models.ChatSession, messageType string, content models.MessageContent, metadata models.MessageMetadata) (*models.Message, error) {
	msg := models.Message{
		ID:          primitive.NewObjectID(),
		SessionID:   session.SessionID,
		MessageID:   uuid.NewString(),
		Sender:      models.SenderUser,
		MessageType: messageType,
		Content:     content,
		Metadata:    metadata,
		Timestamp:   time.Now(),
	}
	if _, err := s.DB.Collection(models.MessagesCollection).InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// completeTurn asks the assistant for a reply, stores it and bumps the
// session counters by two (the user turn plus the reply).
func (s *ChatService) completeTurn(ctx context.Context, session *models.ChatSession, userID primitive.ObjectID, query string) (*models.Message, error) {
	reply, err := s.AI.Chat(ctx, query, session.SessionID, userID.Hex())
	if err != nil {
		s.log.Error().Err(err).Str("session", session.SessionID).Msg("inference call failed")
		return nil, err
	}

	aiMsg := models.Message{
		ID:          primitive.NewObjectID(),
		SessionID:   session.SessionID,
		MessageID:   uuid.NewString(),
		Sender:      models.SenderAI,
		MessageType: models.MessageText,
		Content:     models.MessageContent{Text: reply},
		Metadata:    models.MessageMetadata{ProcessingStatus: models.ProcessingCompleted},
		Timestamp:   time.Now(),
	}
	if _, err := s.DB.Collection(models.MessagesCollection).InsertOne(ctx, aiMsg); err != nil {
		return nil, err
	}

	last := aiMsg.Timestamp
	_, err = s.DB.Collection(models.ChatSessionsCollection).UpdateOne(ctx,
		bson.M{"_id": session.ID},
		bson.M{
			"$inc": bson.M{"messageCount": 2},
			"$set": bson.M{"lastMessageAt": last, "updatedAt": last},
		})
	if err != nil {
		return nil, err
	}
	session.MessageCount += 2
	session.LastMessageAt = &last
	session.UpdatedAt = last
	return &aiMsg, nil
}

func (s *ChatService) backfillMessage(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	_, err := s.DB.Collection(models.MessagesCollection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (s *ChatService) failMessage(ctx context.Context, id primitive.ObjectID) {
	if err := s.backfillMessage(ctx, id, bson.M{"metadata.processingStatus": models.ProcessingFailed}); err != nil {
		s.log.Error().Err(err).Msg("failed to mark message as failed")
	}
}

// extractQuery picks the text the inference service should see for a turn.
func extractQuery(messageType string, content models.MessageContent) string {
	switch messageType {
	case models.MessageAudio:
		return content.AudioTranscript
	case models.MessageImage:
		if content.ImageDescription != "" && content.Text != "" {
			return content.Text + "\n" + content.ImageDescription
		}
		if content.ImageDescription != "" {
			return content.ImageDescription
		}
		return content.Text
	default:
		return content.Text
	}
}

// GetUserSessions lists a page of the user's active sessions, most recently
// updated first.
func (s *ChatService) GetUserSessions(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.ChatSession, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := s.DB.Collection(models.ChatSessionsCollection).
		Find(ctx, bson.M{"userId": userID, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := make([]models.ChatSession, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetChatHistory returns a page of a session's surviving messages in
// chronological order, after checking the session belongs to the user.
func (s *ChatService) GetChatHistory(ctx context.Context, userID primitive.ObjectID, sessionID string, limit, offset int64) ([]models.Message, *models.ChatSession, error) {
	var session models.ChatSession
	err := s.DB.Collection(models.ChatSessionsCollection).
		FindOne(ctx, bson.M{"sessionId": sessionID, "userId": userID}).
		Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cursor, err := s.DB.Collection(models.MessagesCollection).
		Find(ctx, bson.M{"sessionId": sessionID, "isDeleted": false}, opts)
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, nil, err
	}
	return messages, &session, nil
}

// DeleteSession soft deletes a session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, userID primitive.ObjectID, sessionID string) error {
	res, err := s.DB.Collection(models.ChatSessionsCollection).UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "userId": userID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	_, err = s.DB.Collection(models.MessagesCollection).UpdateMany(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{"$set": bson.M{"isDeleted": true}})
	return err
}

// GenerateSummary builds a structured medical summary from one or more of the
// user's sessions and stores it as a draft.
func (s *ChatService) GenerateSummary(ctx context.Context, userID primitive.ObjectID, sessionIDs []string, summaryType string) (*models.MedicalSummary, error) {
	count, err := s.DB.Collection(models.ChatSessionsCollection).
		CountDocuments(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}, "userId": userID})
	if err != nil {
		return nil, err
	}
	if count != int64(len(sessionIDs)) {
		return nil, ErrSessionNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.DB.Collection(models.MessagesCollection).
		Find(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}, "isDeleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	turns := make([]SummaryMessage, 0, len(messages))
	for _, m := range messages {
		text := extractQuery(m.MessageType, m.Content)
		if text == "" {
			continue
		}
		turns = append(turns, SummaryMessage{Sender: m.Sender, Content: text, Timestamp: m.Timestamp})
	}

	result, err := s.AI.Summarize(ctx, turns, summaryType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := models.MedicalSummary{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		SessionIDs:  sessionIDs,
		SummaryType: summaryType,
		Summary: models.SummaryBody{
			MainSymptoms:       result.Summary.MainSymptoms,
			Duration:           result.Summary.Duration,
			Severity:           result.Summary.Severity,
			AssociatedSymptoms: result.Summary.AssociatedSymptoms,
			MedicalHistory:     result.Summary.MedicalHistory,
			Medications:        result.Summary.Medications,
			Allergies:          result.Summary.Allergies,
			Lifestyle:          result.Summary.Lifestyle,
			KeyQuotes:          result.Summary.KeyQuotes,
		},
		AIConfidence: result.Confidence,
		Status:       models.SummaryDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.DB.Collection(models.SummariesCollection).InsertOne(ctx, summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetUserSummaries lists the user's summaries, newest first, optionally
// filtered by status and summary type.
func (s *ChatService) GetUserSummaries(ctx context.Context, userID primitive.ObjectID, status, summaryType string) ([]models.MedicalSummary, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	if summaryType != "" {
		filter["summaryType"] = summaryType
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.DB.Collection(models.SummariesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	summaries := make([]models.MedicalSummary, 0)
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SendSummaryToDoctor shares a summary with a doctor: the summary moves to
// sent status, the doctor gets an in-app notification and, when a device
// token is registered, a push.
func (s *ChatService) SendSummaryToDoctor(ctx context.Context, userID, summaryID, doctorID primitive.ObjectID) (*models.MedicalSummary, error) {
	var summary models.MedicalSummary
	err := s.DB.Collection(models.SummariesCollection).
		FindOne(ctx, bson.M{"_id": summaryID, "userId": userID}).
		Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}

	var doctor models.User
	err = s.DB.Collection(models.UsersCollection).
		FindOne(ctx, bson.M{"_id": doctorID, "type": models.TypeDoctor}).
		Decode(&doctor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}

	var patient models.User
	if err := s.DB.Collection(models.UsersCollection).
		FindOne(ctx, bson.M{"_id": userID}).Decode(&patient); err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = s.DB.Collection(models.SummariesCollection).UpdateOne(ctx,
		bson.M{"_id": summaryID},
		bson.M{"$set": bson.M{"doctorId": doctorID, "status": models.SummarySentToDoctor, "updatedAt": now}})
	if err != nil {
		return nil, err
	}
	summary.DoctorID = doctorID
	summary.Status = models.SummarySentToDoctor
	summary.UpdatedAt = now

	patientName := patient.FirstName + " " + patient.LastName
	notification := models.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: doctorID,
		Type:        models.NotificationSummaryShared,
		Title:       "New medical summary",
		Message:     patientName + " shared a medical summary with you",
		Data: map[string]string{
			"summaryId": summaryID.Hex(),
			"patientId": userID.Hex(),
		},
		CreatedAt: now,
	}
	if _, err := s.DB.Collection(models.NotificationsCollection).InsertOne(ctx, notification); err != nil {
		s.log.Error().Err(err).Msg("failed to store doctor notification")
	}

	// Push is fire and forget, same as the email and SMS paths.
	go s.Push.Notify(context.Background(), doctor.FCMToken, notification.Title, notification.Message, notification.Data)

	return &summary, nil
}
