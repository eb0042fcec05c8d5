// Package caption describes images with a vision-language model served
// behind an OpenAI-compatible chat completions API.
package caption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultPrompt is the user instruction sent when the caller gives none.
	DefaultPrompt = "Describe this image in detail. Transcribe any visible text."
	// DefaultSystemPrompt frames the model's answers.
	DefaultSystemPrompt = "You describe images for a document indexing pipeline. Answer with plain text only."
	// DefaultTimeout bounds one captioning request.
	DefaultTimeout = 60 * time.Second
)

// ErrNotImage is returned when the payload is not a recognizable image.
var ErrNotImage = errors.New("payload is not an image")

// Config configures a Client.
type Config struct {
	// Endpoint is the API base URL, e.g. http://localhost:8000/v1.
	Endpoint     string
	Model        string
	APIKey       string
	SystemPrompt string
	Timeout      time.Duration
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// New returns a client for cfg. Endpoint and Model are required.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("caption endpoint is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("caption model is required")
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
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
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Caption sends image with prompt and returns the first choice's text.
// An empty prompt uses DefaultPrompt.
func (c *Client) Caption(ctx context.Context, image []byte, prompt string) (string, error) {
	uri, err := DataURI(image)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.cfg.SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: uri}},
			}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal caption request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read caption response: %w", err)
	}
	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", fmt.Errorf("caption API status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("caption API status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode caption response: %w", decodeErr)
	}
	if out.Error != nil {
		return "", fmt.Errorf("caption API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("caption API returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// DataURI encodes image as a base64 data URI using its sniffed media type.
func DataURI(image []byte) (string, error) {
	mt := mimetype.Detect(image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	mediaType, _, _ := strings.Cut(mt.String(), ";")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image), nil
}
