// Package wikipedia implements knowledge.Source on top of the MediaWiki
// action API.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/logicsearch/knowledge"
	"github.com/tmc/langchaingo/httputil"
	"github.com/valyala/fastjson"
	"golang.org/x/time/rate"
)

const (
	defaultLanguage      = "en"
	defaultUserAgent     = "logicsearch/1.0 (https://github.com/poiesic/logicsearch)"
	defaultRatePerSecond = 5
	defaultMaxCandidates = 10
	maxResponseBytes     = 4 << 20
	apiURLFormat         = "https://%s.wikipedia.org/w/api.php"
)

var parserPool fastjson.ParserPool

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client looks up Wikipedia page summaries.
type Client struct {
	apiURL        string
	userAgent     string
	httpClient    Doer
	limiter       *rate.Limiter
	autoSuggest   bool
	maxCandidates int
	logger        *slog.Logger
}

var _ knowledge.Source = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithLanguage selects the Wikipedia edition, e.g. "en" or "ru".
func WithLanguage(lang string) Option {
	return func(c *Client) error {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return fmt.Errorf("wikipedia: language cannot be empty")
		}
		c.apiURL = fmt.Sprintf(apiURLFormat, lang)
		return nil
	}
}

// WithAPIURL overrides the api.php endpoint. Takes precedence over WithLanguage
// when applied after it.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) error {
		if _, err := url.Parse(apiURL); err != nil {
			return fmt.Errorf("wikipedia: invalid API URL: %w", err)
		}
		c.apiURL = apiURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client. Defaults to langchaingo's httputil.DefaultClient.
func WithHTTPClient(client Doer) Option {
	return func(c *Client) error {
		if client != nil {
			c.httpClient = client
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header Wikipedia requires.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if ua != "" {
			c.userAgent = ua
		}
		return nil
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) error {
		if perSecond <= 0 {
			c.limiter = nil
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithAutoSuggest makes a missing title fall back to the best full-text
// search hit before reporting knowledge.ErrPageNotFound.
func WithAutoSuggest(enabled bool) Option {
	return func(c *Client) error {
		c.autoSuggest = enabled
		return nil
	}
}

// WithMaxCandidates bounds the candidate list of an ambiguous title.
func WithMaxCandidates(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return fmt.Errorf("wikipedia: max candidates must be positive")
		}
		c.maxCandidates = n
		return nil
	}
}

// WithLogger sets the logger. Nil falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a Wikipedia client.
//
// Returns knowledge.Source interface to enforce abstraction.
func NewClient(opts ...Option) (knowledge.Source, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(opts ...Option) (*Client, error) {
	c := &Client{
		apiURL:        fmt.Sprintf(apiURLFormat, defaultLanguage),
		userAgent:     defaultUserAgent,
		httpClient:    httputil.DefaultClient,
		limiter:       rate.NewLimiter(rate.Limit(defaultRatePerSecond), 1),
		maxCandidates: defaultMaxCandidates,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "wikipedia")
	return c, nil
}

// LookupPage resolves title to its lead-section summary.
func (c *Client) LookupPage(ctx context.Context, title string) (*knowledge.Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, knowledge.ErrPageNotFound
	}

	page, err := c.fetchPage(ctx, title)
	if err == nil || !c.autoSuggest || !errors.Is(err, knowledge.ErrPageNotFound) {
		return page, err
	}

	suggestion, err := c.searchTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if suggestion == "" || strings.EqualFold(suggestion, title) {
		return nil, knowledge.ErrPageNotFound
	}
	c.logger.Debug("using search suggestion", "title", title, "suggestion", suggestion)
	return c.fetchPage(ctx, suggestion)
}

func (c *Client) fetchPage(ctx context.Context, title string) (*knowledge.Page, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("redirects", "1")
	params.Set("prop", "extracts|info|pageprops")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("inprop", "url")
	params.Set("ppprop", "disambiguation")
	params.Set("titles", title)

	var page *knowledge.Page
	var ambiguous bool
	err := c.get(ctx, params, func(v *fastjson.Value) error {
		pages := v.GetArray("query", "pages")
		if len(pages) == 0 {
			return knowledge.ErrPageNotFound
		}
		p := pages[0]
		if p.GetBool("missing") || p.GetBool("invalid") {
			return knowledge.ErrPageNotFound
		}
		ambiguous = p.Exists("pageprops", "disambiguation")
		page = &knowledge.Page{
			Title:   string(p.GetStringBytes("title")),
			Summary: strings.TrimSpace(string(p.GetStringBytes("extract"))),
			URL:     string(p.GetStringBytes("fullurl")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ambiguous {
		candidates, err := c.fetchLinks(ctx, page.Title)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, knowledge.ErrPageNotFound
		}
		return nil, &knowledge.AmbiguousError{Title: title, Candidates: candidates}
	}
	return page, nil
}

// fetchLinks returns the article links of a disambiguation page.
func (c *Client) fetchLinks(ctx context.Context, title string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "links")
	params.Set("plnamespace", "0")
	params.Set("pllimit", strconv.Itoa(c.maxCandidates))
	params.Set("titles", title)

	var candidates []string
	err := c.get(ctx, params, func(v *fastjson.Value) error {
		pages := v.GetArray("query", "pages")
		if len(pages) == 0 {
			return nil
		}
		for _, link := range pages[0].GetArray("links") {
			if t := string(link.GetStringBytes("title")); t != "" {
				candidates = append(candidates, t)
			}
		}
		return nil
	})
	return candidates, err
}

// searchTitle returns the title of the best full-text hit, or "".
func (c *Client) searchTitle(ctx context.Context, term string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("list", "search")
	params.Set("srsearch", term)
	params.Set("srlimit", "1")

	var title string
	err := c.get(ctx, params, func(v *fastjson.Value) error {
		hits := v.GetArray("query", "search")
		if len(hits) > 0 {
			title = string(hits[0].GetStringBytes("title"))
		}
		return nil
	})
	return title, err
}

// get performs a throttled GET and hands the parsed body to fn.
// The value passed to fn is only valid for the duration of the call.
func (c *Client) get(ctx context.Context, params url.Values, fn func(*fastjson.Value) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia request: unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading wikipedia response: %w", err)
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return fmt.Errorf("parsing wikipedia response: %w", err)
	}
	if apiErr := v.Get("error"); apiErr != nil {
		return fmt.Errorf("wikipedia api error %s: %s",
			apiErr.GetStringBytes("code"), apiErr.GetStringBytes("info"))
	}
	return fn(v)
}
