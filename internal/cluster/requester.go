package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/config"
	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

const systemPrompt = "You are an SEO expert analyzing website sitemaps to identify topical clusters."

// Requester packages a fetched URL set into one clustering request to the
// external semantic service and defensively parses the structured response.
// There is no fallback to synthetic clusters: any failure here fails the job.
type Requester struct {
	client ChatCompleter
	cfg    config.ClusterConfig
	logger *zap.Logger
}

// NewRequester creates a Requester backed by the OpenAI-format chat client.
func NewRequester(cfg config.ClusterConfig, logger *zap.Logger) *Requester {
	return &Requester{
		client: newOpenAIClient(cfg),
		cfg:    cfg,
		logger: logger,
	}
}

// NewRequesterWithClient creates a Requester around an existing client.
// Used by tests to substitute the service boundary.
func NewRequesterWithClient(client ChatCompleter, cfg config.ClusterConfig, logger *zap.Logger) *Requester {
	return &Requester{client: client, cfg: cfg, logger: logger}
}

// Identify asks the external service for the topical clusters of the URL set.
// URL sets beyond the configured limit are truncated deterministically
// (first K in fetch order) — a documented lossy approximation, not an error.
func (r *Requester) Identify(ctx context.Context, entries []domain.URLEntry, stats domain.SitemapStats) ([]domain.Cluster, error) {
	sample := entries
	if len(sample) > r.cfg.MaxURLs {
		r.logger.Info("Truncating URL set for clustering request",
			zap.Int("total", len(entries)), zap.Int("sampled", r.cfg.MaxURLs))
		sample = sample[:r.cfg.MaxURLs]
	}

	prompt, err := r.buildPrompt(sample, stats)
	if err != nil {
		return nil, fmt.Errorf("build clustering prompt: %w", err)
	}

	content, err := r.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	clusters, err := r.parseClusters(content)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Clustering complete", zap.Int("clusters", len(clusters)))
	return clusters, nil
}

func (r *Requester) buildPrompt(sample []domain.URLEntry, stats domain.SitemapStats) (string, error) {
	urls := make([]string, len(sample))
	for i, e := range sample {
		urls[i] = e.Loc
	}
	urlJSON, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I need to analyze a website sitemap to identify the top %d SEO topical clusters.\n\n", r.cfg.MaxClusters)
	b.WriteString("Here are some details about the sitemap:\n")
	fmt.Fprintf(&b, "- Total URLs: %d\n", stats.TotalURLs)
	fmt.Fprintf(&b, "- Main domain: %s\n", stats.MainDomain)
	fmt.Fprintf(&b, "- Average path depth: %.2f\n\n", stats.AvgDepth)
	fmt.Fprintf(&b, "Here's a sample of URLs from the sitemap (up to %d):\n%s\n\n", r.cfg.MaxURLs, urlJSON)
	b.WriteString("Based on SEO best practices and content organization:\n")
	fmt.Fprintf(&b, "1. Identify the top %d topical clusters present in this sitemap\n", r.cfg.MaxClusters)
	b.WriteString("2. Count the approximate number of URLs that belong to each cluster\n")
	fmt.Fprintf(&b, "3. List up to %d example URLs for each cluster\n", r.cfg.MaxExamples)
	b.WriteString("4. Provide a brief description of each cluster and its SEO significance\n")
	b.WriteString("5. Suggest a descriptive title for each cluster\n")
	fmt.Fprintf(&b, "6. Suggest up to %d new article ideas per cluster that would strengthen it\n\n", r.cfg.MaxIdeas)
	b.WriteString(`Respond with JSON in the following format:
{
    "clusters": [
        {
            "title": "Cluster title",
            "description": "Brief description of this topical cluster",
            "count": "Approximate number of URLs in this cluster",
            "examples": ["example-url-1", "example-url-2"],
            "seo_significance": "Why this cluster is significant for SEO",
            "article_ideas": [
                {"headline": "Suggested article headline", "description": "What the article should cover"}
            ]
        }
    ]
}

`)
	fmt.Fprintf(&b, "Only include the %d most significant clusters ordered by importance.\n", r.cfg.MaxClusters)

	return b.String(), nil
}

// wireCluster is the loosely-typed shape the service actually returns. Count
// stays raw so both the numeric value and the original wording survive.
type wireCluster struct {
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Count           json.RawMessage      `json:"count"`
	Examples        []string             `json:"examples"`
	SEOSignificance string               `json:"seo_significance"`
	ArticleIdeas    []domain.ArticleIdea `json:"article_ideas"`
}

// parseClusters validates the structural shape of the service response.
// Semantic correctness is out of scope; a missing or empty clusters list is
// a malformed response.
func (r *Requester) parseClusters(content string) ([]domain.Cluster, error) {
	var payload struct {
		Clusters *[]wireCluster `json:"clusters"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &domain.ClusteringError{
			Kind:   domain.ClusteringMalformedResponse,
			Msg:    "response is not the expected JSON document",
			Sample: domain.TruncateSample(content),
			Err:    err,
		}
	}
	if payload.Clusters == nil {
		return nil, &domain.ClusteringError{
			Kind:   domain.ClusteringMalformedResponse,
			Msg:    "response has no clusters field",
			Sample: domain.TruncateSample(content),
		}
	}

	wires := *payload.Clusters
	if len(wires) > r.cfg.MaxClusters {
		wires = wires[:r.cfg.MaxClusters]
	}

	clusters := make([]domain.Cluster, 0, len(wires))
	for _, w := range wires {
		if strings.TrimSpace(w.Title) == "" {
			continue
		}
		c := domain.Cluster{
			Title:           w.Title,
			Description:     w.Description,
			Count:           1,
			Examples:        w.Examples,
			SEOSignificance: w.SEOSignificance,
			ArticleIdeas:    w.ArticleIdeas,
		}
		if len(w.Count) > 0 {
			_ = c.Count.UnmarshalJSON(w.Count)
			var label string
			if err := json.Unmarshal(w.Count, &label); err == nil {
				c.CountLabel = label
			}
		}
		if len(c.Examples) > r.cfg.MaxExamples {
			c.Examples = c.Examples[:r.cfg.MaxExamples]
		}
		if len(c.ArticleIdeas) > r.cfg.MaxIdeas {
			c.ArticleIdeas = c.ArticleIdeas[:r.cfg.MaxIdeas]
		}
		clusters = append(clusters, c)
	}

	if len(clusters) == 0 {
		return nil, &domain.ClusteringError{
			Kind:   domain.ClusteringMalformedResponse,
			Msg:    "response contains no usable clusters",
			Sample: domain.TruncateSample(content),
		}
	}
	return clusters, nil
}
