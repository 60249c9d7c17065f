// internal/services/ocr_service.go
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
	"time"

	"github.com/kowida/kowida-backend/internal/config"
)

// OCRService wraps the external text-extraction API. The pipeline itself
// is opaque to this backend; we send bytes, we get text.
type OCRService struct {
	config     *config.Config
	httpClient *http.Client
}

type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

func NewOCRService(config *config.Config) *OCRService {
	return &OCRService{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExtractText sends an image to the OCR collaborator and returns the
// recognized text.
func (s *OCRService) ExtractText(ctx context.Context, file multipart.File, filename string) (*OCRResult, error) {
	if s.config.Tools.OCRBaseURL == "" {
		return nil, errors.New("OCR service is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Tools.OCRBaseURL+"/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.config.Tools.OCRAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Tools.OCRAPIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	var result OCRResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	return &result, nil
}
