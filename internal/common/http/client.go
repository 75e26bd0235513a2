// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "lead-capture/internal/common/errors"
)

// Request describes one JSON call relative to the client's base URL.
type Request struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      interface{}
}

// Client is a JSON-over-HTTP client in which every call is bounded by a
// per-call deadline and every failure comes back as *errors.StandardError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	tracer     trace.Tracer
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		tracer:     otel.Tracer("lead-capture/http"),
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// DoJSON performs req and decodes a 2xx body into out (when non-nil). It
// never panics; a panic while handling the call is returned as an internal
// error.
func (c *Client) DoJSON(ctx context.Context, req Request, out interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError(fmt.Sprintf("panic during %s: %v", req.Operation, r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "gateway."+req.Operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path),
	)

	err = c.do(ctx, req, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperrors.Message(err))
	}
	return err
}

func (c *Client) do(ctx context.Context, req Request, out interface{}) error {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("marshal %s body: %v", req.Operation, err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return apperrors.NewTransportError(req.Operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(req.Operation, c.timeout)
		}
		return apperrors.NewTransportError(req.Operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.NewUnexpectedStatusError(req.Operation, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(req.Operation, c.timeout)
		}
		return apperrors.NewTransportError(req.Operation, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewMalformedPayloadError(req.Operation, err)
	}
	return nil
}
