package extraction

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stocklens/backend/internal/domain"
)

// Prompts sent to the extraction model. They pin the six-unit vocabulary so
// the model's output mostly lands on canonical tags; whatever it returns
// anyway still passes through domain.NormalizeUnit in the mapper.
const (
	invoicePrompt = `Extraia todos os itens desta nota fiscal de supermercado. Para cada item, retorne: nome do produto, quantidade e unidade de medida.

IMPORTANTE: A unidade de medida DEVE ser uma das seguintes opções (use exatamente como escrito):
- "kg" (quilogramas)
- "g" (gramas)
- "L" (litros - use L maiúsculo)
- "mL" (mililitros)
- "un" (unidades)
- "duzia" (dúzias)

Se a nota fiscal usar outras unidades (como "pacote", "caixa", "unidade", etc.), converta para "un".
Se usar "litro" ou "litros", use "L".
Se usar "quilo" ou "quilograma", use "kg".

Retorne em formato JSON estruturado: [{"nome": "...", "quantidade": ..., "unidade": "..."}].
Apenas retorne o JSON, sem texto adicional.`

	audioPromptTemplate = `Extraia os itens e quantidades mencionados neste texto sobre uso de ingredientes.

IMPORTANTE: A unidade de medida DEVE ser uma das seguintes opções (use exatamente como escrito):
- "kg" (quilogramas)
- "g" (gramas)
- "L" (litros - use L maiúsculo)
- "mL" (mililitros)
- "un" (unidades)
- "duzia" (dúzias)

Se o texto mencionar outras unidades (como "pacote", "caixa", "unidade", etc.), converta para "un".

Exemplo: 'vou usar 2kg de farinha e 500g de açúcar' deve retornar: [{"nome": "farinha", "quantidade": 2, "unidade": "kg"}, {"nome": "açúcar", "quantidade": 500, "unidade": "g"}]

Retorne em formato JSON: [{"nome": "...", "quantidade": ..., "unidade": "..."}].
Apenas retorne o JSON, sem texto adicional.

Texto: %s`
)

// ClientConfig holds configuration for the extraction gateway client.
type ClientConfig struct {
	APIKey             string
	BaseURL            string
	VisionModel        string
	TranscriptionModel string
	Timeout            time.Duration
	RequestsPerMinute  int
}

// Client talks to an OpenAI-compatible API to turn invoice images and audio
// recordings into structured mentions.
type Client struct {
	http               *resty.Client
	visionModel        string
	transcriptionModel string
	rateLimiter        *rate.Limiter
	logger             *zap.Logger
}

var _ domain.ExtractionGateway = (*Client)(nil)

// NewClient creates an extraction client, applying defaults for unset config
// values.
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.VisionModel == "" {
		config.VisionModel = "gpt-4o-mini"
	}
	if config.TranscriptionModel == "" {
		config.TranscriptionModel = "whisper-1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetAuthToken(config.APIKey).
		SetTimeout(config.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	limiter := rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60), 5)

	return &Client{
		http:               httpClient,
		visionModel:        config.VisionModel,
		transcriptionModel: config.TranscriptionModel,
		rateLimiter:        limiter,
		logger:             logger,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// ExtractFromImage extracts mentions from an invoice image (base64 or data
// URL).
func (c *Client) ExtractFromImage(ctx context.Context, imageBase64 string) ([]domain.ExtractedMention, error) {
	url := imageBase64
	if !strings.HasPrefix(url, "data:") {
		url = "data:image/jpeg;base64," + imageBase64
	}

	content, err := c.chatCompletion(ctx, chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: invoicePrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: url}},
			},
		}},
		MaxTokens: 2000,
	})
	if err != nil {
		return nil, err
	}

	return ParseMentions(content)
}

// ExtractFromAudio transcribes an audio recording, then structures the
// transcript into mentions with a second completion.
func (c *Client) ExtractFromAudio(ctx context.Context, audio []byte, filename string) ([]domain.ExtractedMention, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var transcription transcriptionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetFormData(map[string]string{
			"model":    c.transcriptionModel,
			"language": "pt",
		}).
		SetResult(&transcription).
		Post("/audio/transcriptions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailure, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: transcription returned %s", domain.ErrExtractionFailure, resp.Status())
	}

	c.logger.Debug("audio transcribed",
		zap.Int("audioBytes", len(audio)),
		zap.Int("transcriptChars", len(transcription.Text)))

	content, err := c.chatCompletion(ctx, chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{{
			Role:    "user",
			Content: fmt.Sprintf(audioPromptTemplate, transcription.Text),
		}},
		MaxTokens: 1000,
	})
	if err != nil {
		return nil, err
	}

	return ParseMentions(content)
}

// chatCompletion posts one chat completion and returns the first choice's
// content.
func (c *Client) chatCompletion(ctx context.Context, request chatRequest) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var response chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailure, err)
	}
	if resp.IsError() {
		if response.Error != nil {
			return "", fmt.Errorf("%w: %s (%s)", domain.ErrExtractionFailure, response.Error.Message, resp.Status())
		}
		return "", fmt.Errorf("%w: completion returned %s", domain.ErrExtractionFailure, resp.Status())
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", domain.ErrExtractionFailure)
	}

	return response.Choices[0].Message.Content, nil
}
