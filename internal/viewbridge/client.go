package viewbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

// APIError is a non-2xx bridge response. State is set for rule rejections.
type APIError struct {
	Status int
	Body   battledto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge api error: status=%d code=%s message=%s", e.Status, e.Body.Error.Code, e.Body.Error.Message)
}

// Client talks to a running bridge. Only idempotent reads are retried.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) ClientOption {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var resp map[string]string
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, &resp, true); err != nil {
		return "", err
	}
	return resp["battleId"], nil
}

func (c *Client) State(ctx context.Context) (*battledto.State, error) {
	var st battledto.State
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/state", nil, &st, true); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) LegalMoves(ctx context.Context, square string) ([]string, error) {
	var resp battledto.LegalMovesResponse
	path := "/api/legal?square=" + url.QueryEscape(square)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Moves, nil
}

func (c *Client) Move(ctx context.Context, from, to string) (*battledto.MoveResponse, error) {
	var resp battledto.MoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/move", battledto.MoveRequest{From: from, To: to}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Promote(ctx context.Context, kind string) (*battledto.MoveResponse, error) {
	var resp battledto.MoveResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/promote", battledto.PromoteRequest{Kind: kind}, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Undo(ctx context.Context) (*battledto.UndoResponse, error) {
	var resp battledto.UndoResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/undo", nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Results(ctx context.Context, limit int) ([]battledto.BattleResult, error) {
	var resp battledto.ResultsResponse
	path := "/api/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if jerr := json.Unmarshal(resp.Body(), &apiErr.Body); jerr != nil {
				apiErr.Body.Error = battledto.DomainError{Code: battledto.CodeInternal, Message: truncate(string(resp.Body()), 512)}
			}
			if !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}

		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
