package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/harrisonrobin/taskpilot/pkg/auth"
	"github.com/harrisonrobin/taskpilot/pkg/logger"
	"github.com/harrisonrobin/taskpilot/pkg/model"
)

const (
	AnalyzePath = "/api/tasks/analyze/"
	SuggestPath = "/api/tasks/suggest/"
)

// Options configures a Client. Only BaseURL is required.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// CSRFToken, when set, is used as the page marker instead of reading
	// the service page.
	CSRFToken string
	// Tokens overrides the default page token source.
	Tokens     auth.TokenSource
	HTTPClient *http.Client
	Debug      bool
}

// Client talks to the analysis and suggestion endpoints.
type Client struct {
	http    *resty.Client
	baseURL string
	tokens  auth.TokenSource
}

func NewClient(opts Options) (*Client, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	if rc.GetClient().Jar == nil {
		jar, err := auth.NewCookieJar()
		if err != nil {
			return nil, fmt.Errorf("could not create cookie jar: %w", err)
		}
		rc.SetCookieJar(jar)
	}
	rc.SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetDebug(opts.Debug)
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = &auth.PageTokenSource{
			Marker:  opts.CSRFToken,
			PageURL: base + "/",
			Client:  rc.GetClient(),
		}
	}

	c := &Client{http: rc, baseURL: base, tokens: tokens}
	rc.OnBeforeRequest(c.attachCSRF)
	return c, nil
}

func normalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("server URL scheme must be http or https, got: %q", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("server URL must have a host, got: %q", raw)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

// attachCSRF adds the anti-forgery token to every mutating request. The
// token is read fresh each time since it may rotate between calls.
func (c *Client) attachCSRF(_ *resty.Client, r *resty.Request) error {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	token, err := c.tokens.Token(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Debug("csrf token unavailable", "error", err)
	}
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader(auth.CSRFHeader, token)
	return nil
}

// Analyze submits tasks and overrides to the analysis service.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResults, error) {
	var out analyzeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		ForceContentType("application/json").
		Post(AnalyzePath)
	if err != nil {
		return nil, &AnalysisRequestError{Status: statusOf(resp), Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &AnalysisRequestError{Status: resp.StatusCode()}
	}
	logger.FromContext(ctx).Debug("analysis received",
		"priority", len(out.Results.PriorityList),
		"blocked", len(out.Results.BlockedTasks),
		"attention", len(out.Results.NeedsAttention))
	return &out.Results, nil
}

// SyncSnapshot pushes the task list to the suggestion service. Callers treat
// it as best effort: the returned error is informational only.
func (c *Client) SyncSnapshot(ctx context.Context, tasks []model.Record) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(SyncRequest{Tasks: tasks}).
		Post(SuggestPath)
	if err != nil {
		return fmt.Errorf("suggestion sync failed: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("suggestion sync failed (%d)", resp.StatusCode())
	}
	return nil
}

// Suggest fetches the top n suggestions.
func (c *Client) Suggest(ctx context.Context, topN int) (*Suggestions, error) {
	var out Suggestions
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("top_n", strconv.Itoa(topN)).
		SetResult(&out).
		ForceContentType("application/json").
		Get(SuggestPath)
	if err != nil {
		return nil, &SuggestionRequestError{Status: statusOf(resp), Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &SuggestionRequestError{Status: resp.StatusCode()}
	}
	return &out, nil
}

func statusOf(resp *resty.Response) int {
	if resp == nil || resp.RawResponse == nil {
		return 0
	}
	return resp.StatusCode()
}
