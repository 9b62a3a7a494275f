package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// maxBodySize caps how much of any response body is read.
const maxBodySize = 4 << 20

// TokenSource supplies the bearer token. It is consulted on every request,
// so a token written to the store is used by the very next call.
type TokenSource interface {
	AccessToken() string
}

type tokenKey struct{}

// WithToken returns a ctx whose requests carry tok instead of the TokenSource
// value. It lets a call outlive the credentials it was started with.
func WithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

func (c *Client) bearer(ctx context.Context) string {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok {
		return tok
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// Result is the generic outcome of calls whose success carries no payload.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Client is the Payline API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	userAgent  string
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a new API client. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "payline",
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends one request and decodes a JSON success body into out (if non-nil).
// It never retries.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.bearer(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", reqID).Str("method", method).Str("path", path).Msg("request failed")
		return &APIError{Status: 0, Message: networkErrorMessage, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if readErr != nil {
			return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return parseError(resp.StatusCode, respBody)
	}
	if readErr != nil {
		return &APIError{Status: 0, Message: networkErrorMessage, Err: readErr}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 || !isJSON(resp.Header.Get("Content-Type")) {
		if r, ok := out.(*Result); ok {
			*r = Result{Success: true}
		}
		return nil
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// parseError builds an APIError from a non-2xx body shaped {message, errors}.
// message may be a string or a list of strings; errors maps fields to a
// string or a list of strings.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		apiErr.Message = genericMessage(status)
		return apiErr
	}
	res := gjson.ParseBytes(body)

	msg := res.Get("message")
	if !msg.Exists() {
		msg = res.Get("error")
	}
	switch {
	case msg.IsArray():
		var parts []string
		for _, m := range msg.Array() {
			parts = append(parts, m.String())
		}
		apiErr.Message = strings.Join(parts, "; ")
	case msg.Type == gjson.String:
		apiErr.Message = msg.String()
	}
	if apiErr.Message == "" {
		apiErr.Message = genericMessage(status)
	}

	if fields := res.Get("errors"); fields.IsObject() {
		apiErr.Errors = make(map[string][]string)
		fields.ForEach(func(k, v gjson.Result) bool {
			if v.IsArray() {
				for _, item := range v.Array() {
					apiErr.Errors[k.String()] = append(apiErr.Errors[k.String()], item.String())
				}
			} else {
				apiErr.Errors[k.String()] = []string{v.String()}
			}
			return true
		})
	}
	return apiErr
}

func genericMessage(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}
