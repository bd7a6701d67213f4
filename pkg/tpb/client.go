// Package tpb is a client for The Pirate Bay's metadata: searches, top
// lists, torrent details and file listings, normalised into TorrentRecords.
//
// Each call sends a single request. There is no retry, caching or rate
// limiting here; callers that need them wrap the client.
package tpb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/gotpb/pkg/httputil"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/tpb/categories"
	tpberrors "github.com/amaumene/gotpb/pkg/tpb/errors"
	"github.com/amaumene/gotpb/pkg/tpb/models"
	"github.com/amaumene/gotpb/pkg/tpb/parser"
	"github.com/amaumene/gotpb/pkg/tpb/query"
	"github.com/amaumene/gotpb/pkg/tpb/sorter"
)

const (
	// DefaultAPIBaseURL serves the JSON API.
	DefaultAPIBaseURL = "https://apibay.org"
	// DefaultClassicBaseURL is a mirror serving the classic HTML layout.
	DefaultClassicBaseURL = "https://tpb.party"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 16 << 20
	drainLimit     = 4 << 10
)

// call states, logged at debug level
const (
	stateIdle             = "idle"
	stateRequestSent      = "request sent"
	stateResponseReceived = "response received"
	stateParsed           = "parsed"
	stateFailed           = "failed"
)

// SearchResult is a possibly partial result set. Failures lists every entry
// that was dropped and why.
type SearchResult struct {
	Records  []models.TorrentRecord         `json:"records"`
	Failures []*tpberrors.EntryParseFailure `json:"failures,omitempty"`
	Request  models.RequestSpec             `json:"request"`
}

// FileList is the content of one torrent.
type FileList struct {
	Files    []models.TorrentFile           `json:"files"`
	Failures []*tpberrors.EntryParseFailure `json:"failures,omitempty"`
	Request  models.RequestSpec             `json:"request"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the site root, e.g. "https://apibay.org".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithDialect selects the JSON API or the classic HTML layout.
func WithDialect(dialect query.Dialect) Option {
	return func(c *Client) { c.dialect = dialect }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// WithCategoryTable replaces the embedded category table.
func WithCategoryTable(table *categories.Table) Option {
	return func(c *Client) { c.table = table }
}

// WithClock sets the time source used for relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to one site. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	baseURL    string
	dialect    query.Dialect
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     logger.Logger
	table      *categories.Table
	now        func() time.Time

	builder *query.Builder
	parser  *parser.Parser
	sorter  *sorter.RecordSorter
}

// New creates a client for the JSON API unless options say otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		dialect: query.DialectAPIBay,
		timeout: defaultTimeout,
		logger:  logger.Discard(),
		table:   categories.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		c.baseURL = DefaultAPIBaseURL
		if c.dialect == query.DialectClassic {
			c.baseURL = DefaultClassicBaseURL
		}
	}
	if c.httpClient == nil {
		c.httpClient = httputil.NewClientWithUserAgent(c.timeout, c.userAgent)
	}

	c.builder = query.NewBuilder(c.dialect)
	c.parser = parser.New(c.table, c.now)
	c.sorter = sorter.NewRecordSorter()
	return c
}

// Dialect returns the configured dialect.
func (c *Client) Dialect() query.Dialect {
	return c.builder.Dialect()
}

// BaseURL returns the site root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Categories returns the category table in table order.
func (c *Client) Categories() []categories.Category {
	return c.table.All()
}

// CategoryTable returns the table records are classified with.
func (c *Client) CategoryTable() *categories.Table {
	return c.table
}

// RequestFor returns the request Search would send for q.
func (c *Client) RequestFor(q models.SearchQuery) models.RequestSpec {
	return c.builder.Build(q)
}

// Search runs a query. On the JSON API the requested sort and page are
// applied to the returned records, since the API ignores them.
func (c *Client) Search(ctx context.Context, q models.SearchQuery) (*SearchResult, error) {
	rs := c.builder.Build(q)
	result, err := c.list(ctx, rs)
	if err != nil {
		return nil, err
	}

	if c.builder.Dialect() == query.DialectAPIBay {
		c.sorter.Sort(result.Records, rs.Sort)
		result.Records = c.sorter.Page(result.Records, rs.Page, query.APIPageSize)
	}
	return result, nil
}

// Top100 returns the most seeded torrents overall, or in one category.
func (c *Client) Top100(ctx context.Context, category categories.Category, last48h bool) (*SearchResult, error) {
	return c.list(ctx, c.builder.BuildTop100(category, last48h))
}

// Torrent returns the detail of one torrent. It is only available on the
// JSON API.
func (c *Client) Torrent(ctx context.Context, id uint64) (*models.TorrentDetail, error) {
	rs, err := c.builder.BuildTorrent(id)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, rs)
	if err != nil {
		return nil, err
	}

	raw, ok, reason := parser.DecodeDetail(body)
	if !ok {
		c.trace(rs, stateFailed)
		return nil, tpberrors.NewUnexpectedShapeError(reason)
	}
	// unknown ids come back as an object with id 0
	if rawID := strings.TrimSpace(raw.ID); rawID == "" || rawID == "0" {
		c.trace(rs, stateFailed)
		return nil, tpberrors.NewNotFoundError(id)
	}

	detail, failure := c.parser.ParseDetail(raw)
	if failure != nil {
		c.trace(rs, stateFailed)
		return nil, fmt.Errorf("failed to parse torrent %d: %w", id, failure)
	}
	c.trace(rs, stateParsed)
	return &detail, nil
}

// Files returns the file listing of one torrent. It is only available on
// the JSON API.
func (c *Client) Files(ctx context.Context, id uint64) (*FileList, error) {
	rs, err := c.builder.BuildFiles(id)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, rs)
	if err != nil {
		return nil, err
	}

	raws, ok, reason := parser.DecodeFiles(body)
	if !ok {
		c.trace(rs, stateFailed)
		return nil, tpberrors.NewUnexpectedShapeError(reason)
	}

	files, failures := c.parser.ParseFiles(raws)
	c.report(failures)
	c.trace(rs, stateParsed)
	return &FileList{Files: files, Failures: failures, Request: rs}, nil
}

func (c *Client) list(ctx context.Context, rs models.RequestSpec) (*SearchResult, error) {
	body, err := c.fetch(ctx, rs)
	if err != nil {
		return nil, err
	}

	decoded := parser.Decode(rs.Format, body)
	if decoded.Shape != parser.ShapeKnown {
		c.trace(rs, stateFailed)
		c.logger.Errorf("[TPB] unexpected response from %s: %s", rs.Path, decoded.Reason)
		return nil, tpberrors.NewUnexpectedShapeError(decoded.Reason)
	}

	records, failures := c.parser.ParseEntries(decoded.Entries)
	c.report(failures)
	c.trace(rs, stateParsed)
	c.logger.Debugf("[TPB] %s: %d records, %d skipped", rs.Path, len(records), len(failures))

	return &SearchResult{Records: records, Failures: failures, Request: rs}, nil
}

// fetch sends one request and returns the body of a 2xx response.
func (c *Client) fetch(ctx context.Context, rs models.RequestSpec) ([]byte, error) {
	target := rs.URL(c.baseURL)
	c.trace(rs, stateIdle)

	req, err := http.NewRequestWithContext(ctx, rs.Method, target, nil)
	if err != nil {
		c.trace(rs, stateFailed)
		return nil, tpberrors.NewTransportError("failed to build request", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rs.Format == models.FormatJSON {
		req.Header.Set("Accept", "application/json")
	}

	c.trace(rs, stateRequestSent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.trace(rs, stateFailed)
		c.logger.Errorf("[TPB] request to %s failed: %v", target, err)
		return nil, tpberrors.NewTransportError(fmt.Sprintf("request to %s failed", target), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
		c.trace(rs, stateFailed)
		c.logger.Errorf("[TPB] %s returned status %d", target, resp.StatusCode)
		return nil, tpberrors.NewStatusError(resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.trace(rs, stateFailed)
		return nil, tpberrors.NewTransportError(fmt.Sprintf("failed to read response from %s", target), err)
	}

	c.trace(rs, stateResponseReceived)
	return body, nil
}

func (c *Client) report(failures []*tpberrors.EntryParseFailure) {
	for _, f := range failures {
		c.logger.Warnf("[TPB] skipped entry: %v", f)
	}
}

func (c *Client) trace(rs models.RequestSpec, state string) {
	c.logger.Debugf("[TPB] %s %s: %s", rs.Method, rs.Path, state)
}
