package llm

import (
	"bytes"
	"chargen/internal/config"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const geminiEndpointTemplate = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiClient talks to the Gemini generateContent API. Image and text
// generation use the same non-streaming endpoint with different models.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	imageModel string
	textModel  string

	// endpointBase is overridable in tests; empty means the production API.
	endpointBase string
}

func NewGeminiClient(cfg config.Config) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		apiKey:     strings.TrimSpace(cfg.GeminiAPIKey),
		imageModel: cfg.GeminiImageModel,
		textModel:  cfg.GeminiTextModel,
	}
}

func (g *GeminiClient) ProviderID() string {
	return "gemini"
}

// GenerateImage requests an illustrated portrait and returns the decoded
// bytes of the first inline image found in the response.
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	logger := providerLogger(ctx, g.ProviderID(), g.imageModel)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_image_start")

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiContentPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	apiResponse, err := g.generateContent(ctx, logger, g.imageModel, payload)
	if err != nil {
		return nil, err
	}

	// 按顺序遍历 candidates 与 parts，取第一个内联图像
	for _, candidate := range apiResponse.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			raw, decodeErr := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if decodeErr != nil {
				logger.WithError(decodeErr).Error("llm_generate_image_decode_failed")
				return nil, &UpstreamError{Provider: g.ProviderID(), Detail: "invalid base64 image payload"}
			}
			logger.WithFields(logrus.Fields{
				"image_bytes": len(raw),
				"mime_type":   part.InlineData.MimeType,
			}).Info("llm_generate_image_success")
			return raw, nil
		}
	}

	logger.Warn("llm_generate_image_no_image")
	return nil, ErrNoImage
}

// GenerateText returns the first non-empty text part, collapsed to one line.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	logger := providerLogger(ctx, g.ProviderID(), g.textModel)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_text_start")

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiContentPart{{Text: prompt}}},
		},
	}

	apiResponse, err := g.generateContent(ctx, logger, g.textModel, payload)
	if err != nil {
		return "", err
	}

	for _, candidate := range apiResponse.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := singleLine(part.Text); text != "" {
				logger.WithField("text_preview", logSnippet(text)).Info("llm_generate_text_success")
				return text, nil
			}
		}
	}

	logger.Warn("llm_generate_text_no_text")
	return "", ErrNoText
}

func (g *GeminiClient) generateContent(ctx context.Context, logger *logrus.Entry, model string, payload geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Error("llm_payload_marshal_failed")
		return nil, err
	}

	base := g.endpointBase
	if base == "" {
		base = geminiEndpointTemplate
	}
	endpoint := fmt.Sprintf(base, model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.WithError(err).Error("llm_request_build_failed")
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	logger.WithField("payload_bytes", len(body)).Info("llm_request_send")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("llm_request_failed")
		return nil, &UpstreamError{Provider: g.ProviderID(), Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithField("status", resp.StatusCode).WithError(err).Error("llm_response_read_failed")
		return nil, &UpstreamError{Provider: g.ProviderID(), Status: resp.StatusCode, Detail: "failed to read response body"}
	}

	logger.WithField("status", resp.StatusCode).Info("llm_response_status")
	if resp.StatusCode >= http.StatusBadRequest {
		logger.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"body_preview": logSnippet(string(respBody)),
		}).Warn("llm_response_error")

		detail := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			detail = apiErr.Error.Message
		}
		return nil, &UpstreamError{Provider: g.ProviderID(), Status: resp.StatusCode, Detail: detail}
	}

	var apiResponse geminiResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		logger.WithError(err).Error("llm_response_unmarshal_failed")
		return nil, &UpstreamError{Provider: g.ProviderID(), Status: resp.StatusCode, Detail: "unparseable response body"}
	}
	return &apiResponse, nil
}

type geminiContentPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string              `json:"role"`
	Parts []geminiContentPart `json:"parts"`
}

type geminiConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	Temperature        float32  `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiContentPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
