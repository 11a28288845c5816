package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

// Endpoint paths, relative to the /api/v2 prefix.
const (
	archivePath = "archive/search"
	tracePath   = "message-finder/search"
)

// DefaultPageSize is used when Options.PageSize is unset.
const DefaultPageSize = 25

// DefaultMaxPages bounds the pagination loop when Options.MaxPages is
// unset. The provider signals termination by omitting the next cursor, so
// this only trips on a misbehaving endpoint.
const DefaultMaxPages = 1000

// wireTimeLayout is the provider's timestamp format: RFC 3339 shaped but
// with a no-colon UTC offset.
const wireTimeLayout = "2006-01-02T15:04:05-0700"

// Options control the bounded pagination loop shared by archive search and
// message trace.
type Options struct {
	// PageSize is the per-request record count.
	PageSize int
	// Limit caps the total records returned; zero means unbounded. When a
	// limit is set it takes precedence over fetching everything: the loop
	// stops once the limit is reached even if more pages exist.
	Limit int
	// Skip is the starting offset within the result set.
	Skip int
	// MaxPages is the safety ceiling on pages fetched; zero means
	// DefaultMaxPages.
	MaxPages int
}

// Service runs archive searches and message traces against the core client.
type Service struct {
	client *mimecast.Client
}

// NewService creates a search service bound to the given client.
func NewService(client *mimecast.Client) *Service {
	return &Service{client: client}
}

// Archive runs a free-text archive search. The filters are compiled into
// the provider's XML query document; contradictory filters fail with
// mimecast.ErrInvalidFilter before any network call.
func (s *Service) Archive(
	ctx context.Context, filters Filters, dates DateRange, opts Options,
) ([]MessageRecord, error) {
	doc, err := filters.ArchiveQueryDocument(dates)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"query": doc}
	return s.run(ctx, archivePath, body, opts, flatPageRecords, FlattenArchive)
}

// Trace runs a structured message trace. Trace has no raw-query mode, so a
// RawQuery filter fails with mimecast.ErrInvalidFilter.
func (s *Service) Trace(
	ctx context.Context, filters Filters, dates DateRange, opts Options,
) ([]MessageRecord, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if filters.RawQuery != "" {
		return nil, fmt.Errorf("message trace does not accept a raw query: %w",
			mimecast.ErrInvalidFilter)
	}

	return s.run(ctx, tracePath, traceBody(filters, dates), opts, tracePageRecords, FlattenTrace)
}

// run drives the bounded pagination loop: each iteration requests
// min(pageSize, remaining) records and the loop stops once the limit is
// reached or the provider omits the next cursor, with a page-count ceiling
// against endpoints that never stop issuing cursors. Every raw record is
// flattened as it arrives; any failure aborts the whole search with a
// *mimecast.PaginationError whose Records field reports how many records
// were flattened before the error. Partial results are never returned.
func (s *Service) run(
	ctx context.Context,
	path string,
	base map[string]any,
	opts Options,
	pageRecords func(*mimecast.Envelope) ([]json.RawMessage, error),
	flatten func(json.RawMessage) (MessageRecord, error),
) ([]MessageRecord, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var out []MessageRecord
	token := ""
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &mimecast.PaginationError{Path: path, Pages: page, Records: len(out), Err: err}
		}
		if page >= maxPages {
			return nil, &mimecast.PaginationError{Path: path, Pages: page, Records: len(out), Err: mimecast.ErrPageLimit}
		}

		size := pageSize
		if opts.Limit > 0 && opts.Limit-len(out) < size {
			size = opts.Limit - len(out)
		}

		pagination := map[string]any{"pageSize": size}
		if token != "" {
			pagination["pageToken"] = token
		}
		if page == 0 && opts.Skip > 0 {
			pagination["start"] = opts.Skip
		}
		base["pagination"] = pagination

		env, err := s.client.Execute(ctx, http.MethodPost, path, base, nil)
		if err != nil {
			return nil, &mimecast.PaginationError{Path: path, Pages: page, Records: len(out), Err: err}
		}

		records, err := pageRecords(env)
		if err != nil {
			return nil, &mimecast.PaginationError{Path: path, Pages: page, Records: len(out), Err: err}
		}

		for _, raw := range records {
			record, err := flatten(raw)
			if err != nil {
				return nil, &mimecast.PaginationError{Path: path, Pages: page, Records: len(out), Err: err}
			}
			out = append(out, record)
			if opts.Limit > 0 && len(out) >= opts.Limit {
				return out, nil
			}
		}

		token = env.NextToken()
		if token == "" {
			return out, nil
		}
	}
}

// traceBody builds the message-trace JSON filter object.
func traceBody(filters Filters, dates DateRange) map[string]any {
	body := map[string]any{
		"start": dates.Start.UTC().Format(wireTimeLayout),
		"end":   dates.End.UTC().Format(wireTimeLayout),
	}

	advanced := map[string]any{}
	if len(filters.From) > 0 {
		advanced["from"] = joinTerms(filters.From)
	}
	if len(filters.To) > 0 {
		advanced["to"] = joinTerms(filters.To)
	}
	if len(filters.Subject) > 0 {
		advanced["subject"] = joinTerms(filters.Subject)
	}
	if len(advanced) > 0 {
		body["advancedTrackAndTraceOptions"] = advanced
	}

	if len(filters.MessageIDs) > 0 {
		body["messageId"] = filters.MessageIDs[0]
	}
	if filters.OldestFirst {
		body["oldestFirst"] = true
	}

	return body
}

// joinTerms joins multi-value trace terms; the trace endpoint takes one
// string per field and treats whitespace-separated values as alternatives.
func joinTerms(values []string) string {
	out := values[0]
	for _, v := range values[1:] {
		out += " " + v
	}
	return out
}

// flatPageRecords extracts a page's records when data is the record list
// itself (archive search).
func flatPageRecords(env *mimecast.Envelope) ([]json.RawMessage, error) {
	return env.Records()
}

// tracePageRecords extracts a page's records from the trace endpoint,
// which nests them under data[0].trackedEmails.
func tracePageRecords(env *mimecast.Envelope) ([]json.RawMessage, error) {
	pages, err := env.Records()
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for _, raw := range pages {
		var page struct {
			TrackedEmails []json.RawMessage `json:"trackedEmails"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode trace page: %w", err)
		}
		out = append(out, page.TrackedEmails...)
	}
	return out, nil
}
