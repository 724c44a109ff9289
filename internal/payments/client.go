package payments

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

	"github.com/sony/gobreaker/v2"

	"freshmart/internal/log"
)

// HTTPError is a non-2xx provider answer. Body is kept for logs.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider http %d: %s", e.Status, truncate(e.Body, 300))
}

// restClient is the small JSON/form client shared by all adapters. Calls go
// through a circuit breaker; 4xx answers are the caller's fault and do not
// count as breaker failures.
type restClient struct {
	base string
	http *http.Client
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func newRESTClient(name, base string, hc *http.Client) *restClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var he *HTTPError
			if errors.As(err, &he) {
				return he.Status < http.StatusInternalServerError
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Security(nil, "payments.breaker", map[string]any{"provider": name, "from": from.String(), "to": to.String()})
		},
	}
	return &restClient{
		base: strings.TrimRight(base, "/"),
		http: hc,
		cb:   gobreaker.NewCircuitBreaker[[]byte](st),
	}
}

func (c *restClient) do(ctx context.Context, method, path string, header http.Header, body io.Reader) ([]byte, error) {
	return c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return nil, err
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return raw, &HTTPError{Status: resp.StatusCode, Body: string(raw)}
		}
		return raw, nil
	})
}

func (c *restClient) json(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if header == nil {
		header = http.Header{}
	}
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
		header.Set("Content-Type", "application/json")
	}
	raw, err := c.do(ctx, method, path, header, body)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func (c *restClient) form(ctx context.Context, path string, header http.Header, vals url.Values, out any) error {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	raw, err := c.do(ctx, http.MethodPost, path, header, strings.NewReader(vals.Encode()))
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func jsonHeader(h http.Header) http.Header {
	h.Set("Content-Type", "application/json")
	return h
}

func jsonBody(v any) io.Reader {
	buf, _ := json.Marshal(v)
	return bytes.NewReader(buf)
}

func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
