package llm

import (
	"chargen/internal/config"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

//文档:https://www.volcengine.com/docs/82379/1824121

// VolcengineClient is the alternate generation provider. Image generation
// uses Seedream streaming (the API only returns a download URL, so the
// result is fetched into memory afterwards); text uses an Ark chat model.
type VolcengineClient struct {
	apiKey     string
	imageModel string
	textModel  string
	httpClient *http.Client
}

func NewVolcengineClient(cfg config.Config) *VolcengineClient {
	return &VolcengineClient{
		apiKey:     strings.TrimSpace(cfg.VolcengineAPIKey),
		imageModel: cfg.VolcengineImageModel,
		textModel:  cfg.VolcengineTextModel,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

func (v *VolcengineClient) ProviderID() string {
	return "volcengine"
}

func (v *VolcengineClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	logger := providerLogger(ctx, v.ProviderID(), v.imageModel)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_image_start")

	client := arkruntime.NewClientWithApiKey(v.apiKey)

	var sequentialImageGeneration volcModel.SequentialImageGeneration = "disabled"
	generateReq := volcModel.GenerateImagesRequest{
		Model:  v.imageModel,
		Prompt: prompt,
		// 正方形头像，1:1
		Size:                      volcengine.String("2048x2048"),
		ResponseFormat:            volcengine.String(volcModel.GenerateImagesResponseFormatURL),
		Watermark:                 volcengine.Bool(false),
		SequentialImageGeneration: &sequentialImageGeneration,
	}

	stream, err := client.GenerateImagesStreaming(ctx, generateReq)
	if err != nil {
		logger.WithError(err).Error("llm_generate_image_stream_open_failed")
		return nil, &UpstreamError{Provider: v.ProviderID(), Detail: err.Error()}
	}
	defer stream.Close()

	var imageURL string
	for {
		recv, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			logger.WithError(recvErr).Error("llm_generate_image_stream_recv_failed")
			return nil, &UpstreamError{Provider: v.ProviderID(), Detail: recvErr.Error()}
		}
		if recv.Type == "image_generation.partial_failed" && recv.Error != nil {
			logger.WithFields(logrus.Fields{
				"error_code":    recv.Error.Code,
				"error_message": recv.Error.Message,
			}).Warn("llm_generate_image_partial_failed")
			if strings.EqualFold(recv.Error.Code, "InternalServiceError") {
				return nil, &UpstreamError{Provider: v.ProviderID(), Detail: recv.Error.Message}
			}
		}
		if recv.Type == "image_generation.partial_succeeded" && recv.Error == nil && recv.Url != nil {
			imageURL = *recv.Url
		}
	}

	if imageURL == "" {
		logger.Warn("llm_generate_image_no_image")
		return nil, ErrNoImage
	}

	raw, err := v.downloadImage(ctx, imageURL)
	if err != nil {
		logger.WithError(err).Error("llm_generate_image_download_failed")
		return nil, err
	}

	logger.WithField("image_bytes", len(raw)).Info("llm_generate_image_success")
	return raw, nil
}

func (v *VolcengineClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	logger := providerLogger(ctx, v.ProviderID(), v.textModel)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_text_start")

	client := arkruntime.NewClientWithApiKey(v.apiKey)

	req := volcModel.CreateChatCompletionRequest{
		Model: v.textModel,
		Messages: []*volcModel.ChatCompletionMessage{
			{
				Role: volcModel.ChatMessageRoleUser,
				Content: &volcModel.ChatCompletionMessageContent{
					StringValue: volcengine.String(prompt),
				},
			},
		},
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_request_failed")
		return "", &UpstreamError{Provider: v.ProviderID(), Detail: err.Error()}
	}

	for _, choice := range resp.Choices {
		if choice.Message.Content == nil || choice.Message.Content.StringValue == nil {
			continue
		}
		if text := singleLine(*choice.Message.Content.StringValue); text != "" {
			logger.WithField("text_preview", logSnippet(text)).Info("llm_generate_text_success")
			return text, nil
		}
	}

	logger.Warn("llm_generate_text_no_text")
	return "", ErrNoText
}

// downloadImage 拉取生成结果链接；链接在生成后 24 小时内有效。
func (v *VolcengineClient) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: v.ProviderID(), Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			Provider: v.ProviderID(),
			Status:   resp.StatusCode,
			Detail:   fmt.Sprintf("image download failed with status %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}
