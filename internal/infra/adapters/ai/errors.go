package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"

	"github.com/jeonjuho23/claude-daily/internal/domain"
)

// classifyStatus tags provider HTTP failures: throttling and server faults are
// worth another attempt, other client errors are not.
func classifyStatus(provider string, status int, err error) error {
	wrapped := fmt.Errorf("%s http %d: %w", provider, status, err)
	switch {
	case status == 429, status >= 500:
		return domain.Retryable(wrapped)
	case status >= 400:
		return domain.NonRetryable(wrapped)
	}
	return wrapped
}

func classifyOpenAI(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus("openai", apiErr.StatusCode, err)
	}
	return classifyTransport("openai", err)
}

func classifyGemini(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus("gemini", apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus("gemini", apiErrPtr.Code, err)
	}
	return classifyTransport("gemini", err)
}

func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	// network errors carry no status and are retried
	return domain.Retryable(fmt.Errorf("%s: %w", provider, err))
}
