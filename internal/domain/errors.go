package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFinalized is returned on any write to a job in a terminal state.
	ErrJobFinalized = errors.New("job already in a terminal state")

	// ErrEmptySitemapURL is returned when the submitted sitemap URL is empty.
	ErrEmptySitemapURL = errors.New("sitemap URL cannot be empty")

	// ErrInvalidSitemapURL is returned when the submitted URL does not parse.
	ErrInvalidSitemapURL = errors.New("invalid sitemap URL")

	// ErrURLTooLong is returned when the submitted URL exceeds the size limit.
	ErrURLTooLong = errors.New("sitemap URL exceeds maximum length (2KB)")

	// ErrQueueFull is returned when the background worker queue cannot
	// accept another job without blocking the caller.
	ErrQueueFull = errors.New("analysis queue is full, try again later")

	// ErrStoreFull is returned when the job store holds its maximum number
	// of jobs and none can be evicted.
	ErrStoreFull = errors.New("job store is full, try again later")
)

// FetchErrorKind classifies sitemap fetch failures.
type FetchErrorKind string

const (
	FetchUnreachable FetchErrorKind = "unreachable"
	FetchInvalidXML  FetchErrorKind = "invalid_xml"
	FetchEmptyResult FetchErrorKind = "empty_result"
	FetchTooLarge    FetchErrorKind = "too_large"
)

// FetchError describes a failed sitemap fetch. Sample carries a bounded
// excerpt of the offending content for self-diagnosis.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Msg    string
	Sample string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %s: %v", e.URL, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s): %s", e.URL, e.Kind, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClusteringErrorKind classifies clustering service failures.
type ClusteringErrorKind string

const (
	ClusteringMalformedResponse  ClusteringErrorKind = "malformed_response"
	ClusteringServiceUnavailable ClusteringErrorKind = "service_unavailable"
)

// ClusteringError describes a failed clustering request. There is no
// fallback to synthetic clusters: any failure here fails the whole job so
// fabricated SEO guidance is never presented as real analysis.
type ClusteringError struct {
	Kind   ClusteringErrorKind
	Msg    string
	Sample string
	Err    error
}

func (e *ClusteringError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clustering (%s): %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("clustering (%s): %s", e.Kind, e.Msg)
}

func (e *ClusteringError) Unwrap() error { return e.Err }

// MaxSampleBytes bounds raw-content samples retained in error details so a
// failed job never pins an arbitrarily large response in memory.
const MaxSampleBytes = 500

// TruncateSample bounds a raw-content excerpt to MaxSampleBytes.
func TruncateSample(s string) string {
	if len(s) <= MaxSampleBytes {
		return s
	}
	return s[:MaxSampleBytes] + "..."
}

// DetailFromError maps a pipeline stage failure to the structured detail
// recorded on the job.
func DetailFromError(err error) *ErrorDetail {
	var fe *FetchError
	if errors.As(err, &fe) {
		return &ErrorDetail{
			Message:  fe.Error(),
			Category: "fetch_" + string(fe.Kind),
			Sample:   fe.Sample,
		}
	}
	var ce *ClusteringError
	if errors.As(err, &ce) {
		return &ErrorDetail{
			Message:  ce.Error(),
			Category: "clustering_" + string(ce.Kind),
			Sample:   ce.Sample,
		}
	}
	return &ErrorDetail{
		Message:  err.Error(),
		Category: "internal",
	}
}
