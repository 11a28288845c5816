package mimecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// FetchAll turns a paginated endpoint into one fully-materialized ordered
// sequence of records, or just the first page when firstPageOnly is set.
//
// The initial request object is deep-copied and never mutated. Each page's
// next cursor is echoed into the following request body as
// data[0].pagination.pageToken. Any page failure aborts the whole fetch
// with *PaginationError; accumulated records are discarded, never returned
// as a partial success.
//
// Cursors are single-use and strictly sequential, so pages are fetched one
// at a time with no prefetch.
func (c *Client) FetchAll(
	ctx context.Context, path string, initial map[string]any, firstPageOnly bool,
) ([]json.RawMessage, error) {
	body, err := cloneBody(initial)
	if err != nil {
		return nil, fmt.Errorf("copy request body: %w", err)
	}

	var all []json.RawMessage
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &PaginationError{Path: path, Pages: page, Records: len(all), Err: err}
		}
		if page >= c.maxPages {
			return nil, &PaginationError{Path: path, Pages: page, Records: len(all), Err: ErrPageLimit}
		}

		env, err := c.Execute(ctx, http.MethodPost, path, body, nil)
		if err != nil {
			return nil, &PaginationError{Path: path, Pages: page, Records: len(all), Err: err}
		}

		records, err := env.Records()
		if err != nil {
			return nil, &PaginationError{Path: path, Pages: page, Records: len(all), Err: err}
		}

		if firstPageOnly {
			return records, nil
		}
		all = append(all, records...)

		next := env.NextToken()
		if next == "" {
			return all, nil
		}
		setPageToken(body, next)
	}
}

// setPageToken echoes a cursor into the request object, creating the
// pagination sub-object when absent and preserving its other fields.
func setPageToken(body map[string]any, token string) {
	pagination, ok := body["pagination"].(map[string]any)
	if !ok {
		pagination = map[string]any{}
	}
	pagination["pageToken"] = token
	body["pagination"] = pagination
}

// cloneBody deep-copies a request object via a JSON round-trip. Request
// bodies are JSON-shaped values, so the round-trip copies arbitrary
// nesting without a bespoke walker.
func cloneBody(body map[string]any) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var clone map[string]any
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}
