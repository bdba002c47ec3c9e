package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var (
	ErrDisabled       = errors.New("llm: api key not configured")
	ErrProviderStatus = errors.New("llm: provider rejected request")
)

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API root, tests point it at httptest.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// Gemini calls the generateContent REST method.
type Gemini struct {
	cfg    GeminiConfig
	client *http.Client
	ins    instrument.Instrumentation
}

type (
	geminiPart struct {
		Text string `json:"text"`
	}

	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}

	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error,omitempty"`
	}
)

func NewGemini(cfg GeminiConfig, ins instrument.Instrumentation) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Gemini{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, ins: ins}
}

func (g *Gemini) Enabled() bool {
	return strings.TrimSpace(g.cfg.APIKey) != ""
}

// Generate returns the text of the first candidate, or "" when the model
// produced none.
func (g *Gemini) Generate(ctx context.Context, prompt string) (_ string, err error) {
	ctx, span := g.ins.Tracer("assistant.outbound.llm").Start(ctx, "Generate")
	span.SetAttributes(attribute.String("llm.model", g.cfg.Model))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !g.Enabled() {
		return "", ErrDisabled
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(g.cfg.Model))

	b := retry.NewExponential(500 * time.Millisecond)
	b = retry.WithMaxRetries(g.cfg.MaxRetries, b)
	b = retry.WithCappedDuration(4*time.Second, b)

	var out geminiResponse
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		out, err = g.post(ctx, endpoint, payload)
		return err
	})
	if err != nil {
		return "", err
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}

	texts := lo.Map(out.Candidates[0].Content.Parts, func(p geminiPart, _ int) string { return p.Text })
	return strings.Join(texts, ""), nil
}

func (g *Gemini) post(ctx context.Context, endpoint string, payload []byte) (geminiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return geminiResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return geminiResponse{}, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	var out geminiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return geminiResponse{}, fmt.Errorf("llm: decode provider response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return out, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return geminiResponse{}, retry.RetryableError(fmt.Errorf("llm: provider status %d", resp.StatusCode))
	default:
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		return geminiResponse{}, fmt.Errorf("%w: status %d: %s", ErrProviderStatus, resp.StatusCode, msg)
	}
}
