package share

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

	"github.com/yonbergman/electric-planner/plan"
)

// Client talks to the share API of another planner instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Create(ctx context.Context, snap plan.Snapshot) (Link, error) {
	data, err := snap.Encode()
	if err != nil {
		return Link{}, fmt.Errorf("share encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/share", bytes.NewReader(data))
	if err != nil {
		return Link{}, fmt.Errorf("share PUT: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req)
	if err != nil {
		return Link{}, err
	}
	var link Link
	if err := json.Unmarshal(body, &link); err != nil {
		return Link{}, fmt.Errorf("share decode: %w", err)
	}
	if link.ID == "" {
		return Link{}, fmt.Errorf("share decode: response without id")
	}
	if link.Path == "" {
		link = LinkFor(link.ID)
	}
	return link, nil
}

func (c *Client) Fetch(ctx context.Context, id string) (plan.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/share?id="+url.QueryEscape(id), nil)
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("share GET: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return plan.Snapshot{}, err
	}
	return plan.Decode(body)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("share %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("share read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("share HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
