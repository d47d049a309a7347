package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/config"
	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

// Browser-like headers: some origins refuse sitemap requests from obvious
// bot user agents.
const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	acceptHeader = "text/html,application/xml,application/xhtml+xml,text/xml;q=0.9,*/*;q=0.8"
)

// Report carries side information about a fetch that succeeded but not
// perfectly: failed index children and cap truncation are reported here, not
// as errors.
type Report struct {
	DocumentsFetched int
	FailedChildren   []string
	Truncated        bool
}

// Partial returns true when some sitemap-index children failed while others
// still yielded URLs.
func (r *Report) Partial() bool {
	return len(r.FailedChildren) > 0
}

// Fetcher retrieves sitemap documents over HTTP(S), follows nested sitemap
// indexes up to bounded depth and child counts, and yields a deduplicated,
// fetch-ordered URL set.
type Fetcher struct {
	client *http.Client
	cfg    config.FetchConfig
	logger *zap.Logger
}

// NewFetcher creates a Fetcher. The per-request timeout comes from the
// config; recursive fetches share the caller's context.
func NewFetcher(cfg config.FetchConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// crawl accumulates state across one Fetch call. Entries keep first-appearance
// order across recursive merges; seen dedups by exact normalized string.
type crawl struct {
	entries []domain.URLEntry
	seen    map[string]struct{}
	report  Report
}

// errCapReached stops recursion once the hard URL cap is hit. Not a failure:
// the first N URLs in fetch order are kept.
var errCapReached = errors.New("url cap reached")

// Fetch retrieves the sitemap at sitemapURL (following sitemap indexes) and
// returns the extracted URL entries. A partially failed index is not fatal as
// long as at least one child yields URLs; the failures land in the Report.
func (f *Fetcher) Fetch(ctx context.Context, sitemapURL string) ([]domain.URLEntry, *Report, error) {
	c := &crawl{seen: make(map[string]struct{})}

	err := f.fetchOne(ctx, c, sitemapURL, 0)
	if err != nil && !errors.Is(err, errCapReached) {
		return nil, nil, err
	}

	if len(c.entries) == 0 {
		return nil, nil, &domain.FetchError{
			Kind: domain.FetchEmptyResult,
			URL:  sitemapURL,
			Msg:  fmt.Sprintf("no URLs extracted (%d documents fetched, %d children failed)", c.report.DocumentsFetched, len(c.report.FailedChildren)),
		}
	}

	f.logger.Info("Sitemap fetch complete",
		zap.String("url", sitemapURL),
		zap.Int("urls", len(c.entries)),
		zap.Int("documents", c.report.DocumentsFetched),
		zap.Int("failed_children", len(c.report.FailedChildren)),
		zap.Bool("truncated", c.report.Truncated),
	)

	return c.entries, &c.report, nil
}

// fetchOne retrieves and parses a single sitemap document, recursing into
// index children. depth counts index nesting levels from the submitted URL.
func (f *Fetcher) fetchOne(ctx context.Context, c *crawl, docURL string, depth int) error {
	body, err := f.download(ctx, docURL)
	if err != nil {
		return err
	}
	c.report.DocumentsFetched++

	doc, err := parseDocument(body)
	if err != nil {
		return &domain.FetchError{
			Kind:   domain.FetchInvalidXML,
			URL:    docURL,
			Msg:    "malformed sitemap XML",
			Sample: domain.TruncateSample(string(body)),
			Err:    err,
		}
	}

	if doc.isIndex {
		return f.recurseIndex(ctx, c, docURL, doc, depth)
	}

	for _, raw := range doc.urls {
		entry, ok := normalizeEntry(raw)
		if !ok {
			continue
		}
		if _, dup := c.seen[entry.Loc]; dup {
			continue
		}
		c.seen[entry.Loc] = struct{}{}
		c.entries = append(c.entries, entry)
		if len(c.entries) >= f.cfg.MaxURLs {
			c.report.Truncated = true
			return errCapReached
		}
	}
	return nil
}

func (f *Fetcher) recurseIndex(ctx context.Context, c *crawl, parentURL string, doc *document, depth int) error {
	if depth >= f.cfg.MaxDepth {
		f.logger.Warn("Sitemap index nesting limit reached, skipping children",
			zap.String("url", parentURL), zap.Int("depth", depth))
		return nil
	}

	children := doc.children
	if len(children) > f.cfg.MaxChildren {
		f.logger.Warn("Sitemap index lists more children than allowed, truncating",
			zap.String("url", parentURL),
			zap.Int("listed", len(children)),
			zap.Int("max", f.cfg.MaxChildren))
		children = children[:f.cfg.MaxChildren]
	}

	// Children are processed in document order; a failing child is side
	// information, not a fetch failure.
	for _, child := range children {
		if err := f.fetchOne(ctx, c, child, depth+1); err != nil {
			if errors.Is(err, errCapReached) {
				return err
			}
			f.logger.Warn("Child sitemap failed",
				zap.String("parent", parentURL),
				zap.String("child", child),
				zap.Error(err))
			c.report.FailedChildren = append(c.report.FailedChildren, child)
		}
	}
	return nil
}

// download fetches one document, enforcing the body size cap and handling
// gzipped payloads (".gz" sitemaps or gzip content types).
func (f *Fetcher) download(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, URL: docURL, Msg: "invalid URL", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, URL: docURL, Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, domain.MaxSampleBytes))
		return nil, &domain.FetchError{
			Kind:   domain.FetchUnreachable,
			URL:    docURL,
			Msg:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Sample: domain.TruncateSample(string(sample)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, URL: docURL, Msg: "read body", Err: err}
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, &domain.FetchError{
			Kind: domain.FetchTooLarge,
			URL:  docURL,
			Msg:  fmt.Sprintf("document exceeds %d bytes", f.cfg.MaxBodyBytes),
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &domain.FetchError{Kind: domain.FetchEmptyResult, URL: docURL, Msg: "empty response from server"}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasSuffix(docURL, ".gz") || strings.Contains(contentType, "gzip") {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, &domain.FetchError{Kind: domain.FetchInvalidXML, URL: docURL, Msg: "bad gzip payload", Err: err}
		}
		defer gz.Close()
		body, err = io.ReadAll(io.LimitReader(gz, f.cfg.MaxBodyBytes+1))
		if err != nil {
			return nil, &domain.FetchError{Kind: domain.FetchInvalidXML, URL: docURL, Msg: "decompress payload", Err: err}
		}
		if int64(len(body)) > f.cfg.MaxBodyBytes {
			return nil, &domain.FetchError{
				Kind: domain.FetchTooLarge,
				URL:  docURL,
				Msg:  fmt.Sprintf("decompressed document exceeds %d bytes", f.cfg.MaxBodyBytes),
			}
		}
	}

	return body, nil
}

// rawURL is one <url> element of a urlset.
type rawURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// locEntry is one <sitemap> element of a sitemapindex.
type locEntry struct {
	Loc string `xml:"loc"`
}

type document struct {
	isIndex  bool
	children []string
	urls     []rawURL
}

// parseDocument token-scans a sitemap document, matching on local element
// names so namespaced (or sloppily un-namespaced) CMS sitemaps all decode.
func parseDocument(body []byte) (*document, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	doc := &document{}
	sawRoot := false

	for {
		t, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		se, ok := t.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "sitemapindex":
			doc.isIndex = true
			sawRoot = true
		case "urlset":
			sawRoot = true
		case "sitemap":
			var entry locEntry
			if err := decoder.DecodeElement(&entry, &se); err == nil {
				if loc := strings.TrimSpace(entry.Loc); loc != "" {
					doc.children = append(doc.children, loc)
				}
			}
		case "url":
			var entry rawURL
			if err := decoder.DecodeElement(&entry, &se); err == nil {
				if loc := strings.TrimSpace(entry.Loc); loc != "" {
					entry.Loc = loc
					entry.LastMod = strings.TrimSpace(entry.LastMod)
					doc.urls = append(doc.urls, entry)
				}
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("document has no urlset or sitemapindex root")
	}
	return doc, nil
}

var trailingExt = regexp.MustCompile(`\.\w+$`)

// normalizeEntry converts a raw <loc> into a normalized URLEntry: absolute
// http(s) only, scheme and host lowercased, fragment dropped.
func normalizeEntry(raw rawURL) (domain.URLEntry, bool) {
	u, err := url.Parse(raw.Loc)
	if err != nil || !u.IsAbs() {
		return domain.URLEntry{}, false
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.URLEntry{}, false
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return domain.URLEntry{
		Loc:     u.String(),
		Depth:   PathDepth(u.Path),
		LastMod: raw.LastMod,
	}, true
}

// PathDepth counts non-empty path segments after stripping a trailing file
// extension ("/blog/post.html" has depth 2, same as "/blog/post").
func PathDepth(path string) int {
	path = trailingExt.ReplaceAllString(path, "")
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}
