package llm

import (
	"chargen/internal/config"
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client is the generation-provider boundary. GenerateImage returns raw
// image bytes for a prompt; GenerateText returns a short single-line string.
// Neither call retries on its own; retry policy belongs to the caller.
type Client interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrNoImage is returned when the provider answered successfully but no
	// inline image payload was present anywhere in the response. This is a
	// distinct condition from a transport or HTTP failure.
	ErrNoImage = errors.New("provider response did not include image data")
	// ErrNoText is the text-generation counterpart of ErrNoImage.
	ErrNoText = errors.New("provider response did not include text")
)

// UpstreamError carries a provider-side failure: transport errors
// (Status == 0) and non-2xx provider responses with their own error detail.
type UpstreamError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s http %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Detail)
}

// NewClient instantiates the configured generation provider. A nil client
// with nil error means the provider credentials are absent; callers surface
// that as a "not configured" failure at call time.
func NewClient(cfg config.Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.GenerationProvider))
	switch provider {
	case "", "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, nil
		}
		return NewGeminiClient(cfg), nil
	case "volcengine":
		if strings.TrimSpace(cfg.VolcengineAPIKey) == "" {
			return nil, nil
		}
		return NewVolcengineClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.GenerationProvider)
	}
}

// singleLine collapses all internal whitespace and newlines so generated
// quotes stay on one line.
func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
