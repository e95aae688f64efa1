// Package ocr is the client for the remote handwriting-recognition
// service: a bearer token obtained through a key/secret exchange, then
// one form-encoded request per image with the image bytes in base64.
package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	tokenPath       = "/oauth/2.0/token"
	handwritingPath = "/rest/2.0/ocr/v1/handwriting"

	// One request per second. The service throttles faster callers, so
	// this pacing is a scheduling requirement, not an optimization.
	requestsPerSecond = 1
)

// Config for the handwriting OCR client.
type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu    sync.Mutex
	token string
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
	}
}

// accessToken returns the cached bearer token, exchanging the
// key/secret pair on first use.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", c.cfg.APIKey)
	q.Set("client_secret", c.cfg.SecretKey)
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + tokenPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("token exchange status %d: %s", resp.StatusCode, truncate(string(raw), 400))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned no access_token: %s", truncate(string(raw), 400))
	}
	c.token = tok.AccessToken
	return c.token, nil
}

// RecognizeBytes submits one image for handwriting recognition and
// returns the recognized fragments newline-joined in response order.
// The call blocks on the client's rate limiter first.
func (c *Client) RecognizeBytes(ctx context.Context, img []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	rid := uuid.New().String()
	start := time.Now()

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(img))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + handwritingPath + "?access_token=" + url.QueryEscape(token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Info("ocr.request", "req_id", rid, "image_bytes", len(img))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ocr.send_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("recognize request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read recognize response: %w", err)
	}

	c.logger.Info("ocr.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("recognize status %d: %s", resp.StatusCode, truncate(string(raw), 400))
	}

	var body struct {
		ErrorCode   int    `json:"error_code"`
		ErrorMsg    string `json:"error_msg"`
		WordsResult []struct {
			Words string `json:"words"`
		} `json:"words_result"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode recognize response: %w", err)
	}
	if body.ErrorCode != 0 {
		return "", fmt.Errorf("recognition failed: %s (code %d)", body.ErrorMsg, body.ErrorCode)
	}

	lines := make([]string, 0, len(body.WordsResult))
	for _, w := range body.WordsResult {
		lines = append(lines, w.Words)
	}
	return strings.Join(lines, "\n"), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
