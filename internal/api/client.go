// Package api is the HTTP client for the compliance backend's four
// endpoints: catalogue, assign, user assignments and mark-done.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/google/uuid"
)

const (
	pathCatalogue = "/compliance/catalogue-flow"
	pathAssign    = "/compliance/assign"
	pathList      = "/compliance/user-compliances"
	pathMarkDone  = "/compliance/mark-instances-done"

	retryBackoff = 100 * time.Millisecond
)

// Client talks to the compliance backend. It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	tokens   TokenSource
	observer Observer
}

// NewClient creates a Client. A nil tokens source falls back to cfg.Token;
// a nil observer discards events.
func NewClient(cfg Config, tokens TokenSource, observer Observer) *Client {
	if tokens == nil {
		tokens = StaticToken(cfg.Token)
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		tokens:   tokens,
		observer: observer,
	}
}

// FetchCatalogue returns the raw catalogue payload. An empty variant uses
// the configured default; an empty default lets the server decide.
func (c *Client) FetchCatalogue(ctx context.Context, variant domain.CatalogueVariant, orgID *string) ([]byte, error) {
	q := url.Values{}
	if variant == "" {
		variant = c.cfg.Variant
	}
	if variant != "" {
		q.Set("variant", string(variant))
	}
	if id := domain.StrOrEmpty(orgID); id != "" {
		q.Set("orgId", id)
	}
	var raw json.RawMessage
	if err := c.call(ctx, "catalogue", http.MethodGet, pathCatalogue, q, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Assign attaches the given compliance codes to a user, optionally within
// an organisation.
func (c *Client) Assign(ctx context.Context, userID string, orgID *string, codes []string) error {
	body := assignRequest{UserID: userID, ComplianceCodes: codes}
	if domain.StrOrEmpty(orgID) != "" {
		body.OrgID = orgID
	}
	var resp successResponse
	return c.call(ctx, "assign", http.MethodPost, pathAssign, nil, body, &resp)
}

// ListAssignments returns every assignment of a user with its instances.
func (c *Client) ListAssignments(ctx context.Context, userID string) ([]domain.Assignment, error) {
	q := url.Values{}
	q.Set("userId", userID)
	var resp assignmentsResponse
	if err := c.call(ctx, "list", http.MethodGet, pathList, q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Assignment, 0, len(resp.Items))
	for _, w := range resp.Items {
		a, err := w.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// MarkInstancesDone submits the complete set of instances that should be
// done.
func (c *Client) MarkInstancesDone(ctx context.Context, instanceIDs []string) error {
	var resp successResponse
	return c.call(ctx, "mark_done", http.MethodPost, pathMarkDone, nil, markDoneRequest{InstanceIDs: instanceIDs}, &resp)
}

// rejecter is implemented by envelopes that can carry {success:false}.
type rejecter interface {
	rejected() error
}

func (r *successResponse) rejected() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRejected, r.reason())
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	start := time.Now()
	reqID := uuid.New().String()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", op, err)
		}
		payload = data
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.cfg.MaxRetries
	}

	var (
		respBody []byte
		status   int
		lastErr  error
		made     int
	)
	for i := 0; i < attempts; i++ {
		if i > 0 && !sleepCtx(ctx, time.Duration(i)*retryBackoff) {
			break
		}
		made++
		respBody, status, lastErr = c.doRequest(ctx, method, path, query, payload, reqID)
		if lastErr == nil || ctx.Err() != nil || !retryable(lastErr) {
			break
		}
	}

	err := c.classify(ctx, lastErr)
	if err == nil {
		err = decode(respBody, out)
	}

	c.observer.OnCallComplete(CallEvent{
		Operation: op,
		Method:    method,
		Status:    status,
		Attempts:  made,
		LatencyMs: time.Since(start).Milliseconds(),
		RequestID: reqID,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte, reqID string) ([]byte, int, error) {
	u := c.cfg.Endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("obtaining token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, resp.StatusCode, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r, ok := out.(rejecter); ok {
		return r.rejected()
	}
	return nil
}

func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return isConnectionError(err)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrBackendUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrRejected):
		return "REJECTED"
	case errors.Is(err, ErrMalformedResponse):
		return "MALFORMED"
	case errors.As(err, &statusErr):
		return "HTTP_STATUS"
	default:
		return "UNKNOWN"
	}
}
