// File path: internal/vector/chromadb.go
package vector

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
	"sync"
	"time"

	"github.com/nicodishanthj/Katral_bw/internal/common"
)

const (
	connectAttempts = 3
	upsertBatchSize = 256
)

// Record is one knowledge entry as stored in the mirror collection.
type Record struct {
	ID        string
	Document  string
	Metadata  map[string]string
	Embedding []float32
}

// Store receives knowledge entries for external inspection. It is write-only
// from the pipeline's point of view.
type Store interface {
	Available() bool
	Collection() string
	Upsert(ctx context.Context, records []Record) error
	Close() error
}

// Client mirrors records into one ChromaDB collection over the v1 REST API.
type Client struct {
	http      *http.Client
	transport *http.Transport
	base      string
	name      string
	apiKey    string

	mu           sync.Mutex
	collectionID string
}

var _ Store = (*Client)(nil)

// statusError carries a non-2xx response from the server.
type statusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chromadb %s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
}

func hasStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.Code == code
}

type batchPayload struct {
	IDs        []string            `json:"ids"`
	Documents  []string            `json:"documents"`
	Metadatas  []map[string]string `json:"metadatas"`
	Embeddings [][]float32         `json:"embeddings,omitempty"`
}

// New builds a client and tries to resolve the collection. An unreachable
// server leaves the client unavailable; it never fails construction.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("chromadb endpoint required")
	}
	transport := &http.Transport{MaxIdleConns: cfg.MaxIdleConns, IdleConnTimeout: 90 * time.Second}
	c := &Client{
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport: transport,
		base:      cfg.BaseURL(),
		name:      cfg.Collection,
		apiKey:    cfg.APIKey,
	}
	logger := common.Logger().With("component", "vector", "collection", c.name)
	if err := c.connect(ctx); err != nil {
		logger.Warn("vector: chromadb unreachable, mirror disabled", "url", cfg.URL, "error", err)
		return c, nil
	}
	logger.Info("vector: chromadb collection ready", "url", cfg.URL)
	return c, nil
}

// Available reports whether the collection has been resolved.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collectionID != ""
}

func (c *Client) Collection() string {
	if c == nil {
		return ""
	}
	return c.name
}

// connect waits for the heartbeat and then finds or creates the collection.
func (c *Client) connect(ctx context.Context) error {
	if c.Available() {
		return nil
	}
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = c.call(ctx, http.MethodGet, "/heartbeat", nil, nil); err == nil {
			break
		}
		if attempt == connectAttempts {
			return fmt.Errorf("heartbeat: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
		}
	}
	id, err := c.lookupCollection(ctx)
	if err == nil && id == "" {
		id, err = c.createCollection(ctx)
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.collectionID = id
	c.mu.Unlock()
	return nil
}

func (c *Client) lookupCollection(ctx context.Context) (string, error) {
	var resp struct {
		Collections []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"collections"`
	}
	err := c.call(ctx, http.MethodGet, "/collections?name="+url.QueryEscape(c.name), nil, &resp)
	if hasStatus(err, http.StatusNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, col := range resp.Collections {
		if strings.EqualFold(col.Name, c.name) {
			return col.ID, nil
		}
	}
	return "", nil
}

func (c *Client) createCollection(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.call(ctx, http.MethodPost, "/collections", map[string]string{"name": c.name}, &resp)
	if hasStatus(err, http.StatusConflict) {
		// created concurrently by another writer
		return c.lookupCollection(ctx)
	}
	return resp.ID, err
}

// Upsert writes records in batches. Servers without the upsert route get
// the add route instead.
func (c *Client) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.connect(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	prefix := "/collections/" + url.PathEscape(c.collectionID)
	c.mu.Unlock()

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		payload := toPayload(records[start:end])
		err := c.call(ctx, http.MethodPost, prefix+"/upsert", payload, nil)
		if hasStatus(err, http.StatusNotFound) {
			err = c.call(ctx, http.MethodPost, prefix+"/add", payload, nil)
		}
		if err != nil {
			return fmt.Errorf("mirror records %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func toPayload(records []Record) batchPayload {
	p := batchPayload{
		IDs:       make([]string, len(records)),
		Documents: make([]string, len(records)),
		Metadatas: make([]map[string]string, len(records)),
	}
	withVectors := true
	for i, r := range records {
		p.IDs[i] = r.ID
		p.Documents[i] = r.Document
		p.Metadatas[i] = r.Metadata
		if len(r.Embedding) == 0 {
			withVectors = false
		}
	}
	// Chroma rejects partial embedding lists; send all or none.
	if withVectors {
		p.Embeddings = make([][]float32, len(records))
		for i, r := range records {
			p.Embeddings[i] = r.Embedding
		}
	}
	return p
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c != nil && c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}
