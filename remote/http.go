package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/ledger"
)

// HTTPStore talks to a Server over HTTP.
type HTTPStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPStore creates a client for the server at baseURL. A zero timeout
// means 30 seconds.
func NewHTTPStore(baseURL, token string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPStore) snapshotURL(uid string) string {
	return fmt.Sprintf("%s/v1/snapshots/%s", c.baseURL, url.PathEscape(uid))
}

func (c *HTTPStore) do(ctx context.Context, method, uid string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.snapshotURL(uid), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func (c *HTTPStore) Fetch(ctx context.Context, uid string) (ledger.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, uid, nil)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ledger.Snapshot{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return ledger.Snapshot{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var snap ledger.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode response: %w", err)
	}
	return snap, nil
}

func (c *HTTPStore) Upsert(ctx context.Context, uid string, snap ledger.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, uid, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *HTTPStore) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
