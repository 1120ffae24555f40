package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// AIService talks to the external inference service over HTTP. Endpoints:
// POST /chat {query} -> {result}, POST /transcribe and /analyze-image
// (multipart), POST /medical-summary {messages, summary_type}.
type AIService struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// ChatTimeout applies to /chat; media and summary calls get the longer
	// MediaTimeout because transcription is slow.
	ChatTimeout  time.Duration
	MediaTimeout time.Duration
}

func NewAIService(baseURL, apiKey string) *AIService {
	return &AIService{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Client:       &http.Client{},
		ChatTimeout:  10 * time.Second,
		MediaTimeout: 60 * time.Second,
	}
}

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type chatResponse struct {
	Result   string `json:"result"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Chat sends the extracted text content of the latest user message and
// returns the assistant reply.
func (s *AIService) Chat(ctx context.Context, query, sessionID, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ChatTimeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{Query: query, SessionID: sessionID, UserID: userID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	s.setHeaders(req, "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI service error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI service returned %d: %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	// The service has shipped all three field names at different times.
	switch {
	case out.Result != "":
		return out.Result, nil
	case out.Response != "":
		return out.Response, nil
	case out.Message != "":
		return out.Message, nil
	}
	return "", errors.New("empty or invalid AI response")
}

// Transcribe uploads an audio file and returns its transcript.
func (s *AIService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := s.postFile(ctx, "/transcribe", "audio", audioPath, &out); err != nil {
		return "", fmt.Errorf("transcription error: %w", err)
	}
	if out.Transcript == "" {
		return "[No transcription available]", nil
	}
	return out.Transcript, nil
}

// AnalyzeImage uploads an image and returns a textual description.
func (s *AIService) AnalyzeImage(ctx context.Context, imagePath string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	if err := s.postFile(ctx, "/analyze-image", "image", imagePath, &out); err != nil {
		return "", fmt.Errorf("image analysis error: %w", err)
	}
	if out.Description == "" {
		return "[No image description available]", nil
	}
	return out.Description, nil
}

// SummaryMessage is the wire shape of one conversation turn sent to the
// summarisation endpoint.
type SummaryMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SummaryResult is the structured summary returned by the service.
type SummaryResult struct {
	Summary struct {
		MainSymptoms       []string          `json:"mainSymptoms"`
		Duration           string            `json:"duration"`
		Severity           string            `json:"severity"`
		AssociatedSymptoms []string          `json:"associatedSymptoms"`
		MedicalHistory     []string          `json:"medicalHistory"`
		Medications        []string          `json:"medications"`
		Allergies          []string          `json:"allergies"`
		Lifestyle          map[string]string `json:"lifestyle"`
		KeyQuotes          []string          `json:"keyQuotes"`
	} `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// Summarize sends conversation turns to the summarisation endpoint.
func (s *AIService) Summarize(ctx context.Context, messages []SummaryMessage, summaryType string) (*SummaryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.MediaTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"messages":     messages,
		"summary_type": summaryType,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/medical-summary", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	s.setHeaders(req, "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("medical summary error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("medical summary error: %d: %s", resp.StatusCode, string(raw))
	}
	var out SummaryResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return &out, nil
}

func (s *AIService) postFile(ctx context.Context, endpoint, field, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.MediaTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+endpoint, &buf)
	if err != nil {
		return err
	}
	s.setHeaders(req, w.FormDataContentType())

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *AIService) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
}
