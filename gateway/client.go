package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/layer-3/hyperdash"
	"github.com/layer-3/hyperdash/core"
	"github.com/rs/zerolog"
)

const maxErrorBody = 4096

// Client talks to the upstream identity/backend API. It implements
// hyperdash.Gateway for the SDK and exposes Forward for the raw resource
// proxies. Every call is bounded by the configured timeout; a missed deadline
// is reported as ErrTimeout rather than a generic network failure.
type Client struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

var _ hyperdash.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request upstream deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates an upstream client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		timeout: 10 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forward sends a raw request upstream and returns the upstream status and
// body unmodified. Transport failures and deadlines are classified; non-2xx
// statuses are NOT turned into errors here, the proxy handlers mirror them.
func (c *Client) Forward(ctx context.Context, method, path string, query url.Values, bearer string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, c.classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, c.classify(err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("upstream request")

	return resp.StatusCode, data, nil
}

// doJSON performs a JSON round-trip and decodes a 2xx answer into out.
// Non-2xx answers become *UpstreamError with the normalized message.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	status, data, err := c.Forward(ctx, method, path, nil, bearer, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &UpstreamError{Status: status, Message: upstreamMessage(status, data)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// classify maps transport errors to the gateway error taxonomy.
func (c *Client) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return context.Canceled
	default:
		return &NetworkError{Err: err}
	}
}

// RequestNonce asks the backend for a single-use login challenge.
func (c *Client) RequestNonce(ctx context.Context, walletAddress string) (*hyperdash.NonceChallenge, error) {
	var challenge hyperdash.NonceChallenge
	err := c.doJSON(ctx, http.MethodPost, "/auth/wallet/nonce", "", map[string]string{
		"wallet_address": walletAddress,
	}, &challenge)
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// VerifyWallet submits a signed challenge and returns the issued tokens.
func (c *Client) VerifyWallet(ctx context.Context, walletAddress, signature, message, chain string) (*core.AuthResult, error) {
	var result core.AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/wallet/verify", "", map[string]string{
		"wallet_address": walletAddress,
		"signature":      signature,
		"message":        message,
		"chain":          chain,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyGoogle submits a Google ID token and returns the issued tokens.
func (c *Client) VerifyGoogle(ctx context.Context, idToken string) (*core.AuthResult, error) {
	var result core.AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/google", "", map[string]string{
		"id_token": idToken,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentUser resolves the user behind a bearer token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*core.User, error) {
	var user core.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshToken exchanges a bearer token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", token, nil, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// Logout revokes the bearer token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// upstreamMessage extracts a human-readable message from an upstream error
// payload. Backends answer with {"detail": ...}, {"error": ...} or bare text;
// all three collapse to one string.
func upstreamMessage(status int, body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var s string
			if json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
				return s
			}
			return string(envelope.Detail)
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if text != "" {
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return text
	}
	return http.StatusText(status)
}
