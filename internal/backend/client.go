package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("backend: api key is required")

// Options configures the image-synthesis client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the stateless image-synthesis API. The
// remote service keeps no memory between calls; every request carries the
// full prompt, seed, and optional reference image.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// GenerateRequest captures the inputs for one panel generation call.
type GenerateRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Seed           int
	ReferenceImage []byte
	ReferenceURL   string
	Strength       float64
	Guidance       float64
}

// GenerateResult is the normalized backend response.
type GenerateResult struct {
	ImageURL string
	Data     []byte
	Format   string
	Width    int
	Height   int
	SeedUsed int
}

type synthRequest struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           *int    `json:"seed,omitempty"`
	ReferenceImage string  `json:"reference_image,omitempty"`
	ReferenceURL   string  `json:"reference_url,omitempty"`
	Strength       float64 `json:"strength,omitempty"`
	Guidance       float64 `json:"guidance_scale,omitempty"`
}

type synthResponse struct {
	ImageURL  string `json:"image_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SeedUsed  int    `json:"seed_used"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.imagesynth.example.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "archviz-xl"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate invokes the synthesis API once and returns a single panel image.
// Rate-limit rejections map to domain.ErrRateLimited so the executor can
// back off; everything else maps to domain.ErrBackendFailure.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrBackendFailure)
	}
	payload := synthRequest{
		Model:          c.model,
		Prompt:         prompt,
		NegativePrompt: strings.TrimSpace(req.NegativePrompt),
		Width:          req.Width,
		Height:         req.Height,
		Guidance:       req.Guidance,
	}
	if req.Seed > 0 {
		seed := req.Seed
		payload.Seed = &seed
	}
	if len(req.ReferenceImage) > 0 {
		payload.ReferenceImage = base64.StdEncoding.EncodeToString(req.ReferenceImage)
		payload.Strength = req.Strength
	} else if ref := strings.TrimSpace(req.ReferenceURL); ref != "" {
		payload.ReferenceURL = ref
		payload.Strength = req.Strength
	}

	endpoint := c.baseURL + "/images/generations"
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("backend: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrBackendFailure, err)
	}

	if resp.StatusCode >= 300 {
		return nil, c.classifyFailure(resp.StatusCode, raw)
	}

	var decoded synthResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrBackendFailure, err)
	}
	if decoded.Code != "" {
		if isRateLimitCode(decoded.Code) {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, decoded.Message, decoded.Code)
		}
		if isControlFailureCode(decoded.Code) {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrControlImageFailure, decoded.Message, decoded.Code)
		}
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrBackendFailure, decoded.Message, decoded.Code)
	}
	if strings.TrimSpace(decoded.ImageURL) == "" {
		return nil, fmt.Errorf("%w: empty image url", domain.ErrBackendFailure)
	}
	data, format, err := c.download(ctx, decoded.ImageURL)
	if err != nil {
		return nil, err
	}
	width, height := decoded.Width, decoded.Height
	if width == 0 || height == 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err == nil {
			width, height = cfg.Width, cfg.Height
		}
	}
	seedUsed := decoded.SeedUsed
	if seedUsed == 0 {
		seedUsed = req.Seed
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("request_id", decoded.RequestID).
		Str("url", decoded.ImageURL).
		Int("seed", seedUsed).
		Msg("backend: generated panel image")
	return &GenerateResult{
		ImageURL: decoded.ImageURL,
		Data:     data,
		Format:   format,
		Width:    width,
		Height:   height,
		SeedUsed: seedUsed,
	}, nil
}

func (c *Client) classifyFailure(status int, raw []byte) error {
	var detail errorResponse
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
		msg = fmt.Sprintf("%s (%s)", detail.Message, detail.Code)
	}
	if status == http.StatusTooManyRequests || isRateLimitCode(detail.Code) {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	}
	if isControlFailureCode(detail.Code) {
		return fmt.Errorf("%w: %s", domain.ErrControlImageFailure, msg)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrBackendFailure, status, msg)
}

func isRateLimitCode(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == "throttling" || code == "rate_limited" || code == "requests_throttled"
}

func isControlFailureCode(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == "invalid_reference" || code == "reference_fetch_failed" || code == "reference_unreadable"
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("%w: invalid image url: %s", domain.ErrBackendFailure, imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("backend: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download image: %v", domain.ErrBackendFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: download status %d", domain.ErrBackendFailure, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %v", domain.ErrBackendFailure, err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	return data, format, nil
}
