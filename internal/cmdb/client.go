package cmdb

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

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
)

const (
	searchPath = "/rest/api/2/search"
	issuePath  = "/rest/api/2/issue"

	// MaxResults caps one search page.
	MaxResults = 100

	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultRetryMax   = 5 * time.Second
	maxErrorBody      = 512
)

// Item is a configuration item as listed by QueryItems.
type Item struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

var errMissingKey = errors.New("jira response has no issue key")

// reply is a fully read response, so retried attempts never leak bodies.
type reply struct {
	statusCode int
	body       []byte
}

// Client talks to the Jira REST API v2.
type Client struct {
	baseURL    string
	user       string
	token      string
	project    string
	issueType  string
	httpClient *http.Client

	maxRetries int
	retryDelay time.Duration
	retryMax   time.Duration
	retry      retrypolicy.RetryPolicy[*reply]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets the retry budget and the backoff bounds.
func WithRetry(maxRetries int, delay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
		c.retryMax = maxDelay
	}
}

// New creates a client from validated Jira settings.
func New(cfg *config.Jira, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		user:       cfg.User,
		token:      cfg.Token,
		project:    cfg.Project,
		issueType:  cfg.IssueType,
		httpClient: &http.Client{Timeout: config.DefaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		retryMax:   defaultRetryMax,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.retry = retrypolicy.NewBuilder[*reply]().
		HandleIf(func(r *reply, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}

			return r.statusCode == http.StatusTooManyRequests || r.statusCode >= http.StatusInternalServerError
		}).
		WithMaxRetries(c.maxRetries).
		WithBackoff(c.retryDelay, c.retryMax).
		ReturnLastFailure().
		Build()

	return c
}

// Project returns the CMDB project key.
func (c *Client) Project() string {
	return c.project
}

// QueryItems lists up to MaxResults items matching jql, or every item in the project when jql is empty.
func (c *Client) QueryItems(ctx context.Context, jql string) ([]Item, error) {
	if jql == "" {
		jql = "project = " + c.project
	}

	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", strconv.Itoa(MaxResults))

	var page struct {
		Issues []struct {
			Key    string `json:"key"`
			Fields struct {
				Summary string `json:"summary"`
				Status  struct {
					Name string `json:"name"`
				} `json:"status"`
			} `json:"fields"`
		} `json:"issues"`
	}

	if err := c.do(ctx, http.MethodGet, searchPath+"?"+query.Encode(), nil, &page); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(page.Issues))
	for _, issue := range page.Issues {
		items = append(items, Item{
			Key:     issue.Key,
			Summary: issue.Fields.Summary,
			Status:  issue.Fields.Status.Name,
		})
	}

	return items, nil
}

// UpdateItem sets fields on an existing item.
func (c *Client) UpdateItem(ctx context.Context, key string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, issuePath+"/"+url.PathEscape(key), map[string]any{"fields": fields}, nil)
}

// CreateItem creates an item in the project and returns its key.
// Extra fields are merged over the standard ones.
func (c *Client) CreateItem(ctx context.Context, summary, description string, extra map[string]any) (string, error) {
	fields := map[string]any{
		"project":     map[string]string{"key": c.project},
		"summary":     summary,
		"description": description,
		"issuetype":   map[string]string{"name": c.issueType},
	}

	for name, value := range extra {
		fields[name] = value
	}

	var created struct {
		Key string `json:"key"`
	}

	if err := c.do(ctx, http.MethodPost, issuePath, map[string]any{"fields": fields}, &created); err != nil {
		return "", err
	}

	if created.Key == "" {
		return "", errMissingKey
	}

	return created.Key, nil
}

// do sends one request through the retry policy and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", method, err)
		}

		body = encoded
	}

	target := c.baseURL + path
	attempt := 0

	r, err := failsafe.With(c.retry).WithContext(ctx).Get(func() (*reply, error) {
		attempt++
		if attempt > 1 {
			logger.DebugKV(ctx, "Retrying Jira request", "method", method, "url", target, "attempt", attempt)
		}

		return c.send(ctx, method, target, body)
	})
	if err != nil {
		return fmt.Errorf("jira %s %s: %w", method, target, err)
	}

	if r.statusCode < http.StatusOK || r.statusCode >= http.StatusMultipleChoices {
		text := string(r.body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}

		return &StatusError{Method: method, URL: target, StatusCode: r.statusCode, Body: text}
	}

	if out == nil || len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("decode jira response: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, target string, body []byte) (*reply, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.user, c.token)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &reply{statusCode: resp.StatusCode, body: contents}, nil
}
