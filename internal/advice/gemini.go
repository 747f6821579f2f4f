package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

const (
	DefaultModel           = "gemini-2.0-flash"
	DefaultEndpoint        = "https://generativelanguage.googleapis.com/"
	apiVersion             = "v1beta"
	defaultRequestsPerSec  = 1
	defaultRequestsBurst   = 5
	responseMimeTypeJSON   = "application/json"
	apiKeyHeader           = "x-goog-api-key"
	modelResourceKeyPrefix = "models/"
)

type NewGeminiClientParams struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL, e.g. for a local proxy.
	Endpoint string
	// RequestsPerSecond caps outgoing model calls across all users.
	RequestsPerSecond float64
	Burst             int
}

// GeminiClient calls the generateContent method of the Generative Language REST API.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	url        string
	model      string
	limiter    *rate.Limiter
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
}

func NewGeminiClient(params NewGeminiClientParams) (*GeminiClient, error) {
	if params.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.Endpoint == "" {
		params.Endpoint = DefaultEndpoint
	}
	if params.RequestsPerSecond <= 0 {
		params.RequestsPerSecond = defaultRequestsPerSec
	}
	if params.Burst <= 0 {
		params.Burst = defaultRequestsBurst
	}

	model := params.Model
	if !strings.HasPrefix(model, modelResourceKeyPrefix) {
		model = modelResourceKeyPrefix + model
	}

	generateURL, err := url.JoinPath(params.Endpoint, apiVersion, model+":generateContent")
	if err != nil {
		return nil, fmt.Errorf("build generate content url: %w", err)
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiKey:  params.APIKey,
		url:     generateURL,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(params.RequestsPerSecond), params.Burst),
	}, nil
}

// Generate sends the prompt and returns the text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "gemini.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("model", c.model))

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for model rate limit: %w", err)
	}

	reqBody, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: responseMimeTypeJSON,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate content request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("new generate content request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var genResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode generate content response: %w", err)
	}

	if len(genResp.Candidates) == 0 || genResp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
