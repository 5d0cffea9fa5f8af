package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Options controls how a Client talks to its provider.
type Options struct {
	// AppContext describes the application; it is added to every prompt.
	AppContext string
	// SystemPrompt overrides the default translation prompt. The
	// {{targetLang}} placeholder is substituted per request.
	SystemPrompt string
	// MaxRetries is the number of transport-level retries on 429/5xx.
	// Zero disables retries.
	MaxRetries int
	// RequestsPerMinute paces requests. Zero means unlimited.
	RequestsPerMinute int
	// Temperature is the sampling temperature (default 0.3).
	Temperature float64
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Client sends translation and review requests to one provider.
// It implements translate.Translator and suggest.Analyzer.
type Client struct {
	prov    Provider
	opts    Options
	http    *resty.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// New returns a Client for prov.
func New(prov Provider, opts Options) *Client {
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	hc := resty.New().
		SetTimeout(prov.Timeout).
		SetHeader("Content-Type", "application/json")
	if prov.Proxy != "" {
		hc.SetProxy(prov.Proxy)
	}
	if opts.MaxRetries > 0 {
		hc.SetRetryCount(opts.MaxRetries).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(90 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == 429 || r.StatusCode() >= 500
			}).
			SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
				if r != nil && r.StatusCode() == 429 {
					return parseRetryDelay(r.Body()), nil
				}
				return 0, nil
			})
	}

	c := &Client{prov: prov, opts: opts, http: hc, log: logger}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// Provider returns the provider configuration the client was built with.
func (c *Client) Provider() Provider {
	return c.prov
}

// complete sends one system/user prompt pair and returns the model's text.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	endpoint, headers, body, err := buildHTTPRequest(c.prov, systemPrompt, userPrompt, c.opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	c.log.Debug("provider request", "provider", c.prov.ID, "model", c.prov.Model, "bytes", len(body))
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	c.log.Debug("provider response", "status", resp.StatusCode(), "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.IsError() {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 500))
	}
	return extractResponseText(resp.Body())
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	req := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		Stream      bool          `json:"stream"`
	}{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents:         []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string) ([]byte, error) {
	req := struct {
		Model     string        `json:"model"`
		MaxTokens int           `json:"max_tokens"`
		System    string        `json:"system,omitempty"`
		Messages  []chatMessage `json:"messages"`
	}{
		Model:     model,
		MaxTokens: 8192,
		System:    systemPrompt,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt}},
	}
	return json.Marshal(req)
}

// buildHTTPRequest constructs the endpoint, headers, and body for prov.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, temperature float64) (string, map[string]string, []byte, error) {
	headers := map[string]string{}
	base := strings.TrimRight(prov.BaseURL, "/")

	var (
		endpoint string
		body     []byte
		err      error
	)
	switch prov.format() {
	case formatGeminiNative:
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, temperature)

	case formatAnthropic:
		endpoint = base + "/messages"
		if prov.APIKey != "" {
			headers["x-api-key"] = prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(prov.Model, systemPrompt, userPrompt)

	default:
		endpoint = base
		if !strings.HasSuffix(base, "/chat/completions") {
			endpoint = base + "/chat/completions"
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, temperature)
	}
	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw struct {
		Error   json.RawMessage `json:"error"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(raw.Error) > 0 && string(raw.Error) != "null" {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw.Error, &e) == nil && e.Message != "" {
			return "", fmt.Errorf("API error: %s", e.Message)
		}
		return "", fmt.Errorf("API error: %s", truncate(string(raw.Error), 300))
	}

	// OpenAI chat: choices[0].message.content
	if len(raw.Choices) > 0 {
		return raw.Choices[0].Message.Content, nil
	}
	// Gemini: candidates[0].content.parts[0].text
	if len(raw.Candidates) > 0 && len(raw.Candidates[0].Content.Parts) > 0 {
		return raw.Candidates[0].Content.Parts[0].Text, nil
	}
	// Anthropic: content[].type=="text"
	for _, block := range raw.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// parseRetryDelay extracts the retry delay from a 429 response body.
// Looks for Google's RetryInfo detail; defaults to 60s plus a 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}
	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			secs, err := strconv.ParseFloat(strings.TrimSuffix(detail.RetryDelay, "s"), 64)
			if err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}
	return defaultDelay
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
