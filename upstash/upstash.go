// Package upstash implements docindex.SearchIndex on the Upstash Search
// REST API.
package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/docindex"
)

// maxErrorBody bounds how much of an error response is quoted in errors.
const maxErrorBody = 512

// Client talks to one Upstash Search database.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// NewClient creates a client for the REST endpoint baseURL authenticated
// with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Index returns a handle on the named index.
func (c *Client) Index(name string) *Index {
	return &Index{client: c, name: name}
}

// Ensure Index implements docindex.SearchIndex.
var _ docindex.SearchIndex = (*Index)(nil)

// Index is a single Upstash Search index.
type Index struct {
	client *Client
	name   string
}

// Upsert writes records, replacing any with the same id.
func (idx *Index) Upsert(ctx context.Context, records []*docindex.Record) error {
	if len(records) == 0 {
		return nil
	}
	return idx.client.do(ctx, "upsert-data", idx.name, records, nil)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Delete removes the records with the given ids.
func (idx *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return idx.client.do(ctx, "delete", idx.name, deleteRequest{IDs: ids}, nil)
}

// Range returns one page of record ids starting at req.Cursor.
func (idx *Index) Range(ctx context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error) {
	result := &docindex.RangeResult{}
	if err := idx.client.do(ctx, "range", idx.name, req, result); err != nil {
		return nil, err
	}
	// A cursor of "0" also marks the last page.
	if result.NextCursor == docindex.InitialCursor {
		result.NextCursor = ""
	}
	return result, nil
}

// envelope is the shape of every Upstash REST response.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// do POSTs payload to /{command}/{index} and decodes the result field of
// the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, command, index string, payload, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, command, url.PathEscape(index))

	body, err := json.Marshal(payload)
	if err != nil {
		return docindex.Wrapf(docindex.EINTERNAL, err, "encoding %s request", command)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return docindex.Wrapf(docindex.EINVALID, err, "creating %s request", command)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "upstash %s", command)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "reading upstash %s response", command)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = docindex.Truncate(strings.TrimSpace(string(raw)), maxErrorBody)
		}
		return docindex.Errorf(docindex.ESYNC, "upstash %s: HTTP %d: %s", command, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return docindex.Wrapf(docindex.ESYNC, decodeErr, "decoding upstash %s response", command)
	}
	if env.Error != "" {
		return docindex.Errorf(docindex.ESYNC, "upstash %s: %s", command, env.Error)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return docindex.Wrapf(docindex.ESYNC, err, "decoding upstash %s result", command)
		}
	}
	return nil
}
