// Package limesurvey provides a client for the LimeSurvey RemoteControl 2
// JSON-RPC API.
package limesurvey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ErrSessionRefused is returned by GetSessionKey when the remote side
// answers with an error-shaped result instead of a session key string
// (wrong credentials, RPC interface disabled).
var ErrSessionRefused = errors.New("limesurvey: session key refused")

// ErrRemote is returned when the JSON-RPC envelope carries a non-null error.
var ErrRemote = errors.New("limesurvey: remote error")

// ClientOptions configures the RemoteControl API client.
type ClientOptions struct {
	// URL is the full RemoteControl endpoint, e.g.
	// "https://surveys.example.org/index.php/admin/remotecontrol".
	URL string
	// RetryMax is the maximum number of transport retries (default: 0,
	// failed calls are reported immediately).
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds).
	Timeout time.Duration
	// RequestsPerSecond rate-limits outbound calls (default: unlimited).
	RequestsPerSecond float64
}

// Client is the LimeSurvey RemoteControl API client.
type Client struct {
	url        string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given RemoteControl endpoint with
// default settings.
func NewClient(url string) *Client {
	return NewClientWithOptions(ClientOptions{URL: url})
}

// NewClientWithOptions creates a client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default
	// Surface the final response instead of a "giving up" error so 5xx
	// statuses are reported uniformly with other HTTP failures.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		url:        opts.URL,
		httpClient: retryClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// URL returns the configured RemoteControl endpoint.
func (c *Client) URL() string {
	return c.url
}

// call issues one JSON-RPC request and returns the raw result value.
func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s request: %w", method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		detail, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}
		return nil, fmt.Errorf("%s request failed with status %d: %s", method, resp.StatusCode, string(detail))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response body: %w", method, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal %s response: %w", method, err)
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return nil, fmt.Errorf("%w: %s: %s", ErrRemote, method, string(envelope.Error))
	}

	return envelope.Result, nil
}

// GetSessionKey acquires a session key. The API signals bad credentials
// with an error-shaped result (a map carrying "status") rather than an
// RPC error, which is surfaced as ErrSessionRefused.
func (c *Client) GetSessionKey(ctx context.Context, username, password string) (string, error) {
	result, err := c.call(ctx, "get_session_key", username, password)
	if err != nil {
		return "", err
	}

	var key string
	if err := json.Unmarshal(result, &key); err == nil {
		return key, nil
	}

	return "", fmt.Errorf("%w: %s", ErrSessionRefused, string(result))
}

// ReleaseSessionKey releases a session key. The result is ignored; the
// call is best effort.
func (c *Client) ReleaseSessionKey(ctx context.Context, sessionKey string) error {
	_, err := c.call(ctx, "release_session_key", sessionKey)
	return err
}

// ListSurveys returns all surveys visible to the session's user.
func (c *Client) ListSurveys(ctx context.Context, sessionKey string) ([]Survey, error) {
	result, err := c.call(ctx, "list_surveys", sessionKey)
	if err != nil {
		return nil, err
	}

	var surveys []Survey
	if err := json.Unmarshal(result, &surveys); err != nil {
		// A status map here means "no surveys found", not a failure.
		var status map[string]any
		if err2 := json.Unmarshal(result, &status); err2 == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unmarshal list_surveys result: %w", err)
	}

	return surveys, nil
}

// ListParticipants returns participant records for a survey, filtered
// server-side by conditions (e.g. {"email": ...}). attributes selects
// which extra attributes come back; the API wants bare attribute names
// without the attribute_ prefix. An empty result is reported by the API
// as a status map and returned here as a nil slice.
func (c *Client) ListParticipants(
	ctx context.Context,
	sessionKey string,
	surveyID string,
	start, limit int,
	unused bool,
	attributes []string,
	conditions map[string]string,
) ([]Participant, error) {
	if attributes == nil {
		attributes = []string{}
	}

	result, err := c.call(ctx, "list_participants",
		sessionKey, surveyID, start, limit, unused, attributes, conditions)
	if err != nil {
		return nil, err
	}

	var participants []Participant
	if err := json.Unmarshal(result, &participants); err != nil {
		var status map[string]any
		if err2 := json.Unmarshal(result, &status); err2 == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unmarshal list_participants result: %w", err)
	}

	return participants, nil
}

// GetParticipantProperties fetches all available properties for one
// participant, identified by numeric tid or by token string. Error
// conditions are reported in-band as a map with a "status" key; the
// caller inspects it.
func (c *Client) GetParticipantProperties(
	ctx context.Context,
	sessionKey string,
	surveyID string,
	tokenQuery any,
) (map[string]any, error) {
	result, err := c.call(ctx, "get_participant_properties", sessionKey, surveyID, tokenQuery)
	if err != nil {
		return nil, err
	}

	var props map[string]any
	if err := json.Unmarshal(result, &props); err != nil {
		return nil, fmt.Errorf("unmarshal get_participant_properties result: %w", err)
	}

	return props, nil
}

// ExportResponsesByToken exports one token's submitted responses. On
// success the result is a base64-encoded JSON document; on failure it is
// a structured error value. Both are returned raw for the caller to
// classify.
func (c *Client) ExportResponsesByToken(
	ctx context.Context,
	sessionKey string,
	surveyID string,
	token string,
	start, limit int,
) (json.RawMessage, error) {
	return c.call(ctx, "export_responses_by_token",
		sessionKey, surveyID, "json", token, nil, "all", start, limit)
}
