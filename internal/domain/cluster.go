package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Cluster is a group of URLs judged topically related by the external
// semantic service, together with its SEO commentary. The core validates
// structural shape only, never semantic correctness.
type Cluster struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Count           FlexCount     `json:"count"`
	CountLabel      string        `json:"count_label,omitempty"`
	Examples        []string      `json:"examples"`
	SEOSignificance string        `json:"seo_significance"`
	ArticleIdeas    []ArticleIdea `json:"article_ideas,omitempty"`
}

// ArticleIdea is a suggested article for a topical cluster.
type ArticleIdea struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

var firstInt = regexp.MustCompile(`\d+`)

// FlexCount decodes a cluster URL count that the external service may return
// as a JSON number, a numeric string, or free text such as "~120 URLs".
// Decoding falls through numeric → embedded integer → 1, never 0, so a
// cluster is never hidden from visualizations that need a positive weight.
type FlexCount int

func (c *FlexCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*c = clampCount(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = clampCount(int(f))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ParseCount(s)
		return nil
	}

	// Unexpected shape (object, array, null): keep the cluster visible.
	*c = 1
	return nil
}

func (c FlexCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}

// ParseCount extracts the first embedded integer from a free-text count,
// defaulting to 1 when no digits are present.
func ParseCount(s string) FlexCount {
	match := firstInt.FindString(strings.TrimSpace(s))
	if match == "" {
		return 1
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 1
	}
	return clampCount(n)
}

func clampCount(n int) FlexCount {
	if n < 1 {
		return 1
	}
	return FlexCount(n)
}
