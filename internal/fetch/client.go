package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/pagesel/internal/ir"
)

// DefaultTimeout bounds one HTTP request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client reads pages from a pagesel HTTP server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. timeout <= 0 uses
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchPage implements Source over GET /v1/records.
func (c *Client) FetchPage(ctx context.Context, req ir.PageRequest) (ir.Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(req.Offset()))
	q.Set("limit", strconv.Itoa(req.PageSize))

	var wire struct {
		Records      []ir.Record `json:"records"`
		TotalRecords *int        `json:"totalRecords"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/records?"+q.Encode(), nil, &wire); err != nil {
		return ir.Page{}, err
	}

	switch {
	case wire.TotalRecords == nil:
		return ir.Page{}, &Error{Kind: KindMalformed, Message: "missing totalRecords"}
	case *wire.TotalRecords < 0:
		return ir.Page{}, &Error{Kind: KindMalformed, Message: "negative totalRecords"}
	case wire.Records == nil:
		return ir.Page{}, &Error{Kind: KindMalformed, Message: "missing records"}
	}
	for i, rec := range wire.Records {
		if rec.ID == "" {
			return ir.Page{}, &Error{Kind: KindMalformed, Message: fmt.Sprintf("record %d has no id", i)}
		}
	}

	return ir.Page{Records: wire.Records, TotalRecords: *wire.TotalRecords}, nil
}

// ResolveResponse is the body of POST /v1/selections/resolve.
type ResolveResponse struct {
	Fingerprint string        `json:"fingerprint"`
	Total       int           `json:"total"`
	Count       int           `json:"count"`
	IDs         []ir.RecordID `json:"ids"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// Resolve asks the server to evaluate a descriptor. limit <= 0 uses the
// server default.
func (c *Client) Resolve(ctx context.Context, d ir.Descriptor, limit int) (*ResolveResponse, error) {
	path := "/v1/selections/resolve"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp ResolveResponse
	if err := c.doJSON(ctx, http.MethodPost, path, d, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnexpected, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindUnexpected, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// A cancelled caller is not a failure of the source.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &Error{Kind: KindConnectivity, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &Error{Kind: KindConnectivity, Err: err}
		}
		return &Error{Kind: KindMalformed, Err: err}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return statusError(resp.StatusCode, payload.Error)
	}
	return statusError(resp.StatusCode, http.StatusText(resp.StatusCode))
}
