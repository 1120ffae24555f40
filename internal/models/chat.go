package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message senders and types.
const (
	SenderUser = "user"
	SenderAI   = "ai"

	MessageText  = "text"
	MessageAudio = "audio"
	MessageImage = "image"
)

// Message processing statuses.
const (
	ProcessingPending   = "pending"
	ProcessingRunning   = "processing"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// Summary types and statuses.
const (
	SummarySymptoms          = "symptoms"
	SummaryMedicalHistory    = "medical_history"
	SummaryConsultationNotes = "consultation_notes"

	SummaryDraft        = "draft"
	SummarySentToDoctor = "sent_to_doctor"
	SummaryReviewed     = "reviewed"
)

// ChatSession is a conversation thread between a user and the AI assistant.
// Soft-deleted by flipping IsActive; message rows stay put.
type ChatSession struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	SessionID     string             `bson:"sessionId" json:"sessionId"`
	Title         string             `bson:"title" json:"title"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	LastMessageAt *time.Time         `bson:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	MessageCount  int                `bson:"messageCount" json:"messageCount"`
}

// MessageContent is the variant payload of a message; only the fields for the
// message's type are set. Transcript and description are backfilled by the
// processing step.
type MessageContent struct {
	Text             string `bson:"text,omitempty" json:"text,omitempty"`
	AudioURL         string `bson:"audioUrl,omitempty" json:"audioUrl,omitempty"`
	AudioTranscript  string `bson:"audioTranscript,omitempty" json:"audioTranscript,omitempty"`
	ImageURL         string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImageDescription string `bson:"imageDescription,omitempty" json:"imageDescription,omitempty"`
}

// MessageMetadata carries media details plus the processing status.
type MessageMetadata struct {
	AudioFormat      string  `bson:"audioFormat,omitempty" json:"audioFormat,omitempty"`
	AudioDuration    float64 `bson:"audioDuration,omitempty" json:"audioDuration,omitempty"`
	ImageFormat      string  `bson:"imageFormat,omitempty" json:"imageFormat,omitempty"`
	ImageSize        int64   `bson:"imageSize,omitempty" json:"imageSize,omitempty"`
	ProcessingStatus string  `bson:"processingStatus,omitempty" json:"processingStatus,omitempty"`
}

// Message is one turn in a session. Immutable once stored except for status
// and transcript/description backfill.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   string             `bson:"sessionId" json:"sessionId"`
	MessageID   string             `bson:"messageId" json:"messageId"`
	Sender      string             `bson:"sender" json:"sender"`
	MessageType string             `bson:"messageType" json:"messageType"`
	Content     MessageContent     `bson:"content" json:"content"`
	Metadata    MessageMetadata    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted"`
}

// SummaryBody is the structured extraction produced by the summarisation
// service.
type SummaryBody struct {
	MainSymptoms       []string          `bson:"mainSymptoms,omitempty" json:"mainSymptoms,omitempty"`
	Duration           string            `bson:"duration,omitempty" json:"duration,omitempty"`
	Severity           string            `bson:"severity,omitempty" json:"severity,omitempty"`
	AssociatedSymptoms []string          `bson:"associatedSymptoms,omitempty" json:"associatedSymptoms,omitempty"`
	MedicalHistory     []string          `bson:"medicalHistory,omitempty" json:"medicalHistory,omitempty"`
	Medications        []string          `bson:"medications,omitempty" json:"medications,omitempty"`
	Allergies          []string          `bson:"allergies,omitempty" json:"allergies,omitempty"`
	Lifestyle          map[string]string `bson:"lifestyle,omitempty" json:"lifestyle,omitempty"`
	KeyQuotes          []string          `bson:"keyQuotes,omitempty" json:"keyQuotes,omitempty"`
}

// MedicalSummary is an AI-derived extraction over one or more sessions,
// shareable with a doctor.
type MedicalSummary struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	SessionIDs   []string           `bson:"sessionIds" json:"sessionIds"`
	SummaryType  string             `bson:"summaryType" json:"summaryType"`
	Summary      SummaryBody        `bson:"summary" json:"summary"`
	AIConfidence float64            `bson:"aiConfidence,omitempty" json:"aiConfidence,omitempty"`
	DoctorID     primitive.ObjectID `bson:"doctorId,omitempty" json:"doctorId,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
