// Package upstream is the single HTTP boundary to the conference API. Every
// other component funnels through it: base URL resolution, bearer-token
// injection, one uniform timeout, and mapping of transport and status
// failures onto the fault taxonomy.
package upstream

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/samuelorobosa/jci-conf-client/internal/fault"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *logrus.Logger
}

// New builds a client. token is consulted per request so the session store
// can rotate it without re-wiring; it may return "" while anonymous.
func New(baseURL string, timeout time.Duration, token func() string, log *logrus.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		log:     log,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fault.Unknown("encode_failed", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fault.Unknown("request_build_failed", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Debug("upstream request failed")
		if errors.Is(err, context.Canceled) {
			return fault.Network("request_canceled", err)
		}
		return fault.Network("network_error", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).String(),
		"request_id": requestID,
	}).Debug("upstream request")

	if resp.StatusCode >= 400 {
		return statusFault(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.Unknown("decode_failed", err)
	}
	return nil
}

func statusFault(resp *http.Response) error {
	var parsed errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed)
	code := parsed.Error
	if code == "" {
		code = defaultCode(resp.StatusCode)
	}
	message := parsed.Message
	if message == "" {
		message = fmt.Sprintf("upstream returned %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fault.Validation(code, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fault.Unauthorized(code, message)
	case http.StatusNotFound:
		return fault.NotFound(code, message)
	case http.StatusConflict:
		return fault.Conflict(code, message)
	default:
		return fault.New(fault.KindUnknown, code, message)
	}
}

func defaultCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "server_error"
	}
}
