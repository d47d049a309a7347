package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTruncateSample(t *testing.T) {
	short := "short excerpt"
	if got := TruncateSample(short); got != short {
		t.Errorf("short sample must pass through, got %q", got)
	}

	long := strings.Repeat("x", MaxSampleBytes*2)
	got := TruncateSample(long)
	if len(got) != MaxSampleBytes+len("...") {
		t.Errorf("unexpected truncated length %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected ellipsis suffix")
	}
}

func TestDetailFromError(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantCategory string
		wantSample   string
	}{
		{
			"fetch error",
			&FetchError{Kind: FetchInvalidXML, URL: "https://example.com/s.xml", Msg: "bad token", Sample: "<html>"},
			"fetch_invalid_xml",
			"<html>",
		},
		{
			"wrapped fetch error",
			fmt.Errorf("stage: %w", &FetchError{Kind: FetchUnreachable, URL: "https://example.com", Msg: "HTTP 503"}),
			"fetch_unreachable",
			"",
		},
		{
			"clustering error",
			&ClusteringError{Kind: ClusteringServiceUnavailable, Msg: "HTTP 500", Sample: "oops"},
			"clustering_service_unavailable",
			"oops",
		},
		{
			"plain error",
			errors.New("something broke"),
			"internal",
			"",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detail := DetailFromError(tc.err)
			if detail.Category != tc.wantCategory {
				t.Errorf("category %q, want %q", detail.Category, tc.wantCategory)
			}
			if detail.Sample != tc.wantSample {
				t.Errorf("sample %q, want %q", detail.Sample, tc.wantSample)
			}
			if detail.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}
