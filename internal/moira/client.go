// Package moira is a small client for the parts of the Moira HTTP API the
// trigger list needs.
package moira

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
)

// API is the subset of the Moira API used by the trigger list.
type API interface {
	GetTagList(ctx context.Context) (TagList, error)
	GetSettings(ctx context.Context) (Settings, error)
	GetTriggerList(ctx context.Context, page int, onlyProblems bool, tags []string, searchText string) (TriggerList, error)
}

// TriggerAPI is the part of the Moira API behind the trigger detail view.
type TriggerAPI interface {
	GetTrigger(ctx context.Context, id string) (Trigger, error)
	GetTriggerState(ctx context.Context, id string) (CheckData, error)
	GetTriggerEvents(ctx context.Context, id string, page int) (EventList, error)
	// SetMaintenance sets per-metric maintenance. Values are the unix time
	// maintenance ends; 0 switches it off.
	SetMaintenance(ctx context.Context, id string, metrics map[string]int64) error
	DeleteMetric(ctx context.Context, id, metric string) error
	DeleteThrottling(ctx context.Context, id string) error
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("moira api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("moira api: %d: %s", e.Status, e.Message)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
	User     string
	Password string
	Headers  map[string]string
}

// Client talks to a Moira API over HTTP.
type Client struct {
	base     *url.URL
	pageSize int
	http     *http.Client
	user     string
	password string
	headers  map[string]string
}

var (
	_ API        = (*Client)(nil)
	_ TriggerAPI = (*Client)(nil)
)

const (
	// DefaultPageSize is used when the config does not set one.
	DefaultPageSize = 20
	// EventPageSize is the page size for a trigger's event history.
	EventPageSize = 100
)

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("moira: base url is empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("moira: parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("moira: base url scheme must be http or https, got %q", base.Scheme)
	}
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:     base,
		pageSize: size,
		http:     &http.Client{Timeout: timeout},
		user:     cfg.User,
		password: cfg.Password,
		headers:  cfg.Headers,
	}, nil
}

func (c *Client) GetTagList(ctx context.Context) (TagList, error) {
	var out TagList
	err := c.get(ctx, "/tag", nil, &out)
	return out, err
}

func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var out Settings
	err := c.get(ctx, "/user/settings", nil, &out)
	return out, err
}

// GetTriggerList fetches one page. page is the API's zero-based index.
func (c *Client) GetTriggerList(ctx context.Context, page int, onlyProblems bool, tags []string, searchText string) (TriggerList, error) {
	q := url.Values{}
	q.Set("p", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(c.pageSize))
	q.Set("onlyProblems", strconv.FormatBool(onlyProblems))
	for i, tag := range tags {
		q.Set("tags["+strconv.Itoa(i)+"]", tag)
	}
	if searchText != "" {
		q.Set("text", searchText)
	}
	var out TriggerList
	err := c.get(ctx, "/trigger/search", q, &out)
	return out, err
}

func (c *Client) GetTrigger(ctx context.Context, id string) (Trigger, error) {
	var out Trigger
	err := c.get(ctx, "/trigger/"+id, nil, &out)
	return out, err
}

func (c *Client) GetTriggerState(ctx context.Context, id string) (CheckData, error) {
	var out CheckData
	err := c.get(ctx, "/trigger/"+id+"/state", nil, &out)
	return out, err
}

// GetTriggerEvents fetches one zero-based page of the event history.
func (c *Client) GetTriggerEvents(ctx context.Context, id string, page int) (EventList, error) {
	q := url.Values{}
	q.Set("p", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(EventPageSize))
	var out EventList
	err := c.get(ctx, "/event/"+id, q, &out)
	return out, err
}

func (c *Client) SetMaintenance(ctx context.Context, id string, metrics map[string]int64) error {
	return c.do(ctx, http.MethodPut, "/trigger/"+id+"/maintenance", nil, metrics, nil)
}

func (c *Client) DeleteMetric(ctx context.Context, id, metric string) error {
	q := url.Values{}
	q.Set("name", metric)
	return c.do(ctx, http.MethodDelete, "/trigger/"+id+"/metrics", q, nil, nil)
}

func (c *Client) DeleteThrottling(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/trigger/"+id+"/throttling", nil, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do sends body as JSON when it is not nil and decodes the response into
// out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// errorMessage pulls the "status"/"error" text out of a Moira error body.
func errorMessage(body []byte) string {
	var payload struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Status != "" {
			return payload.Status
		}
	}
	return strings.TrimSpace(string(body))
}
