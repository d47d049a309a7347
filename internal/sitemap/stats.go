package sitemap

import (
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

// lastmod values in the wild come in a handful of formats.
var lastModLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// BuildStats computes aggregate statistics for a fetched URL set. Pure: the
// same entries and submitted URL always produce the same stats. The main
// domain is taken from the submitted sitemap URL, not from individual page
// URLs, since sitemaps may span subdomains.
func BuildStats(entries []domain.URLEntry, submittedURL string, report *Report) domain.SitemapStats {
	stats := domain.SitemapStats{
		TotalURLs:      len(entries),
		DepthHistogram: make(map[int]int),
		Domains:        make(map[string]int),
		MainDomain:     mainDomain(submittedURL),
	}
	if report != nil {
		stats.Partial = report.Partial()
		stats.Truncated = report.Truncated
	}

	var depthSum int
	var newest, oldest time.Time
	for _, e := range entries {
		depthSum += e.Depth
		stats.DepthHistogram[e.Depth]++
		if u, err := url.Parse(e.Loc); err == nil && u.Host != "" {
			stats.Domains[u.Host]++
		}
		if e.LastMod == "" {
			continue
		}
		if ts, ok := parseLastMod(e.LastMod); ok {
			if newest.IsZero() || ts.After(newest) {
				newest = ts
			}
			if oldest.IsZero() || ts.Before(oldest) {
				oldest = ts
			}
		}
	}

	if len(entries) > 0 {
		stats.AvgDepth = float64(depthSum) / float64(len(entries))
	}
	if !newest.IsZero() {
		stats.HasLastMod = true
		stats.NewestPage = newest.Format("2006-01-02")
		stats.OldestPage = oldest.Format("2006-01-02")
	}

	return stats
}

// mainDomain extracts the registrable domain of the submitted sitemap URL,
// falling back to the raw host when the public suffix list has no answer
// (IP addresses, localhost).
func mainDomain(submittedURL string) string {
	u, err := url.Parse(submittedURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld
	}
	return host
}

func parseLastMod(s string) (time.Time, bool) {
	for _, layout := range lastModLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
