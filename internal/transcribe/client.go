package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"golang.org/x/time/rate"
)

const (
	maxErrorBody       = 4096
	maxResponseBody    = 16 << 20
	defaultRPM         = 20
	defaultHTTPTimeout = 5 * time.Minute
)

// Transcriber sends an audio file to a speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscriptionResponse, error)
}

// Summarizer condenses transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*SummaryResponse, error)
}

type ResponseSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResponse is the verbose JSON body of a transcription call.
type TranscriptionResponse struct {
	Text     string            `json:"text"`
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
	Segments []ResponseSegment `json:"segments"`
}

type SummaryResponse struct {
	Short     string   `json:"short"`
	Detailed  string   `json:"detailed"`
	KeyTopics []string `json:"keyTopics"`
}

// ClientConfig configures the HTTP clients for both services.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	TranscribeModel   string
	SummaryModel      string
	RequestsPerMinute int
	Timeout           time.Duration
}

type httpBase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func newHTTPBase(cfg ClientConfig, logger *slog.Logger) httpBase {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRPM
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return httpBase{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logger:     logger,
	}
}

// do sends req after the rate limiter admits it and decodes a 2xx JSON body
// into out.
func (b *httpBase) do(req *http.Request, service string, out any) error {
	if b.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := b.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", service, err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http request failed: %w", service, err)
	}
	defer resp.Body.Close()

	b.logger.Info("service call finished",
		"service", service,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServiceError{Service: service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, service, err)
	}
	return nil
}

// HTTPTranscriber talks to a Whisper-compatible /audio/transcriptions
// endpoint.
type HTTPTranscriber struct {
	httpBase
	model string
}

func NewHTTPTranscriber(cfg ClientConfig, logger *slog.Logger) *HTTPTranscriber {
	model := cfg.TranscribeModel
	if model == "" {
		model = "whisper-1"
	}
	return &HTTPTranscriber{httpBase: newHTTPBase(cfg, logger.With("component", "transcriber")), model: model}
}

// Transcribe uploads the audio file and asks for segment timestamps. The
// language is left to the service to detect.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string) (*TranscriptionResponse, error) {
	body, contentType, err := t.multipartBody(audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var out TranscriptionResponse
	if err := t.do(req, "transcription", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *HTTPTranscriber) multipartBody(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(audioPath)))
	h.Set("Content-Type", detectMIME(audioPath))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}

	fields := [][2]string{
		{"model", t.model},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "segment"},
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// detectMIME sniffs the file header; unknown content is sent as octet-stream.
func detectMIME(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

const summaryPrompt = `Summarize the transcript of a video. Reply with a JSON object with keys ` +
	`"short" (one sentence), "detailed" (one paragraph) and "keyTopics" (up to 8 short phrases).`

// HTTPSummarizer uses a chat-completions endpoint with JSON output.
type HTTPSummarizer struct {
	httpBase
	model string
}

func NewHTTPSummarizer(cfg ClientConfig, logger *slog.Logger) *HTTPSummarizer {
	model := cfg.SummaryModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &HTTPSummarizer{httpBase: newHTTPBase(cfg, logger.With("component", "summarizer")), model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, text string) (*SummaryResponse, error) {
	payload, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: text},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var chat chatResponse
	if err := s.do(req, "summarization", &chat); err != nil {
		return nil, err
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: summarization: no choices", ErrInvalidResponse)
	}

	var out SummaryResponse
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: summarization content: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}
