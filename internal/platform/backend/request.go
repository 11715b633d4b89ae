package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/amora-planner/internal/platform/logger"
	"github.com/phrazzld/amora-planner/internal/redact"
	"github.com/phrazzld/amora-planner/internal/store"
	"github.com/phrazzld/amora-planner/internal/wire"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrEmptyResponse is returned when an operation that needs a body got a
// body-less success.
var ErrEmptyResponse = fmt.Errorf("%w: empty response body", store.ErrRequestFailed)

// request describes one call to the backend.
type request struct {
	method string
	path   string
	query  url.Values
	// json is encoded as the body when set.
	json any
	// form is sent url-encoded when set.
	form url.Values
	// anonymous requests never carry the bearer credential.
	anonymous bool
	// out receives the decoded JSON body.
	out any
	// lenient requests ignore a body that does not decode into out.
	lenient bool
}

// do performs r and reports whether the response had no body.
//
// Outcome mapping:
//   - transport failure (DNS, refused connection, timeout): store.ErrNetworkUnreachable
//   - caller cancellation: the context error
//   - 401: store.ErrUnauthorized; the credential is cleared if it was sent
//   - other non-2xx: *store.RequestError
//   - 204 or zero-length body: empty=true, out untouched
func (c *Client) do(ctx context.Context, r request) (empty bool, err error) {
	log := c.log(ctx)
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(reqCtx, r)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return false, fmt.Errorf("%s %s: %w", r.method, r.path, ctxErr)
		}
		log.Warn("backend unreachable",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", time.Since(start)))
		return false, fmt.Errorf("%w: %s %s: %w", store.ErrNetworkUnreachable, r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	log.Debug("backend request",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		if r.anonymous {
			return false, fmt.Errorf("%w: %s", store.ErrUnauthorized, errorMessage(resp, body))
		}
		if clearErr := c.creds.Clear(ctx); clearErr != nil {
			log.Error("failed to clear rejected credential",
				slog.String("error", redact.Error(clearErr)))
		}
		return false, fmt.Errorf("%w: %s", store.ErrUnauthorized, errorMessage(resp, body))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := store.NewRequestError(resp.StatusCode, errorMessage(resp, body))
		log.Info("backend request failed",
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", redact.String(reqErr.Message)))
		return false, reqErr
	}

	if readErr != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return false, fmt.Errorf("%s %s: %w", r.method, r.path, ctxErr)
		}
		return false, fmt.Errorf("%w: reading %s %s: %w", store.ErrNetworkUnreachable, r.method, r.path, readErr)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return true, nil
	}

	if r.out != nil {
		if err := json.Unmarshal(body, r.out); err != nil {
			if r.lenient {
				log.Debug("ignoring undecodable response body",
					slog.String("path", r.path),
					slog.String("error", err.Error()))
				return false, nil
			}
			return false, store.NewRequestError(resp.StatusCode, "invalid response body: "+err.Error())
		}
	}
	return false, nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.json != nil:
		data, err := json.Marshal(r.json)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	if !r.anonymous {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrStorageFailed, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// errorMessage extracts the server-provided message, preferring "detail"
// over "message", else "HTTP <code>: <status text>".
func errorMessage(resp *http.Response, body []byte) string {
	var eb wire.ErrorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		switch d := eb.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if data, err := json.Marshal(d); err == nil {
				return string(data)
			}
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
