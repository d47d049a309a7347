package domain

// URLEntry is a single normalized page URL extracted from a sitemap.
// Entries are collected in fetch order and deduplicated by exact string,
// which downstream sampling relies on for determinism.
type URLEntry struct {
	Loc     string `json:"loc"`
	Depth   int    `json:"depth"`
	LastMod string `json:"lastmod,omitempty"`
}

// SitemapStats holds aggregate statistics about a fetched URL set.
// Derived purely from the URL sequence; recomputed, never mutated.
type SitemapStats struct {
	TotalURLs      int            `json:"total_urls"`
	AvgDepth       float64        `json:"avg_depth"`
	DepthHistogram map[int]int    `json:"depth_distribution"`
	MainDomain     string         `json:"main_domain"`
	Domains        map[string]int `json:"domains"`

	// Partial is set when some sitemap-index children failed but the fetch
	// still succeeded with the URLs of the surviving children.
	Partial bool `json:"partial,omitempty"`
	// Truncated is set when the extracted URL set hit the hard cap.
	Truncated bool `json:"truncated,omitempty"`

	HasLastMod bool   `json:"has_lastmod"`
	NewestPage string `json:"newest_page,omitempty"`
	OldestPage string `json:"oldest_page,omitempty"`
}
