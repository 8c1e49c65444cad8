// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package captcha verifies Cloudflare Turnstile tokens server-side.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/metrics"
)

var (
	// ErrVerificationFailed means Turnstile rejected the token.
	ErrVerificationFailed = errors.New("captcha verification failed")

	// ErrUnavailable means the verify endpoint could not be reached or the
	// circuit breaker is open.
	ErrUnavailable = errors.New("captcha service unavailable")
)

// maxResponseBytes bounds the verify response body.
const maxResponseBytes = 64 << 10

// verifyResponse is Turnstile's siteverify reply.
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
	Action     string   `json:"action"`
}

// Verifier checks a client token. Handlers depend on this interface so tests
// can stub verification.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// TurnstileClient calls the siteverify endpoint through a circuit breaker.
type TurnstileClient struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*verifyResponse]
}

// NewTurnstileClient builds a client. With an empty secret the client is
// disabled and Verify accepts every token.
func NewTurnstileClient(cfg *config.TurnstileConfig) *TurnstileClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	verifyURL := cfg.VerifyURL
	if verifyURL == "" {
		verifyURL = config.DefaultTurnstileVerifyURL
	}

	c := &TurnstileClient{
		secret:     cfg.SecretKey,
		verifyURL:  verifyURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	c.cb = newBreaker("turnstile")

	if !c.Enabled() {
		logging.Warn().Msg("Turnstile secret not configured; captcha verification is disabled")
	}
	return c
}

// Enabled reports whether tokens are actually checked.
func (c *TurnstileClient) Enabled() bool {
	return c.secret != ""
}

// Verify returns nil for an accepted token, ErrVerificationFailed for a
// rejected one and ErrUnavailable when Turnstile cannot be reached.
func (c *TurnstileClient) Verify(ctx context.Context, token, remoteIP string) error {
	if !c.Enabled() {
		metrics.CaptchaVerifications.WithLabelValues("skipped").Inc()
		return nil
	}
	if strings.TrimSpace(token) == "" {
		metrics.CaptchaVerifications.WithLabelValues("failed").Inc()
		return ErrVerificationFailed
	}

	resp, err := c.cb.Execute(func() (*verifyResponse, error) {
		return c.siteVerify(ctx, token, remoteIP)
	})
	if err != nil {
		metrics.CaptchaVerifications.WithLabelValues("unavailable").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Turnstile verification unavailable")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !resp.Success {
		metrics.CaptchaVerifications.WithLabelValues("failed").Inc()
		logging.Ctx(ctx).Info().Strs("error_codes", resp.ErrorCodes).Msg("Turnstile rejected token")
		return ErrVerificationFailed
	}

	metrics.CaptchaVerifications.WithLabelValues("success").Inc()
	return nil
}

// siteVerify performs one POST. Only transport and protocol problems are
// errors; a rejected token is a successful call with Success=false.
func (c *TurnstileClient) siteVerify(ctx context.Context, token, remoteIP string) (*verifyResponse, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out verifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
