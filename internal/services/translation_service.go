// internal/services/translation_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kowida/kowida-backend/internal/config"
)

// TranslationService wraps the external machine-translation API used by
// the mobile clients for Sinhala/Tamil/English content.
type TranslationService struct {
	config     *config.Config
	httpClient *http.Client
}

type TranslateRequest struct {
	Text       string `json:"text" validate:"required"`
	SourceLang string `json:"source_lang" validate:"required,len=2"`
	TargetLang string `json:"target_lang" validate:"required,len=2"`
}

type TranslateResult struct {
	TranslatedText string `json:"translated_text"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
}

func NewTranslationService(config *config.Config) *TranslationService {
	return &TranslationService{
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Translate forwards the text to the translation collaborator.
func (s *TranslationService) Translate(ctx context.Context, req *TranslateRequest) (*TranslateResult, error) {
	if s.config.Tools.TranslationBaseURL == "" {
		return nil, errors.New("translation service is not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build translation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Tools.TranslationBaseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build translation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.config.Tools.TranslationAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.config.Tools.TranslationAPIKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translation service returned status %d", resp.StatusCode)
	}

	var result TranslateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode translation response: %w", err)
	}

	return &result, nil
}
