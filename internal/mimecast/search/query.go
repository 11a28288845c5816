// Package search implements archive search and message trace on top of
// the core client: structured filter validation, query construction (an
// XML query document for the archive, a JSON filter object for tracing),
// the bounded pagination loop both endpoints share, and flattening of raw
// provider records into a stable result shape.
package search

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

// Filters describes a structured search. Multi-value fields are OR'd
// within the field and the fields are AND'd together. RawQuery bypasses
// the builder entirely and is mutually exclusive with every structured
// filter, as are HasAttachment and NoAttachment with each other.
type Filters struct {
	From    []string
	To      []string
	Subject []string
	Body    []string
	// Keywords are free-text terms not scoped to a field.
	Keywords []string

	HasAttachment    bool
	NoAttachment     bool
	AttachmentNames  []string
	AttachmentHashes []string

	MessageIDs []string
	FolderIDs  []string
	AccountIDs []string

	// RawQuery is a provider query string passed through verbatim.
	RawQuery string

	// OldestFirst asks the provider for ascending order. It only affects
	// the query; results are never re-sorted client-side.
	OldestFirst bool
}

// DateRange bounds a search. Both ends are mandatory.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects contradictory filter combinations before any network
// activity.
func (f Filters) Validate() error {
	if f.HasAttachment && f.NoAttachment {
		return fmt.Errorf("hasAttachment and noAttachment are mutually exclusive: %w",
			mimecast.ErrInvalidFilter)
	}
	if f.RawQuery != "" && f.hasStructured() {
		return fmt.Errorf("raw query cannot be combined with structured filters: %w",
			mimecast.ErrInvalidFilter)
	}
	return nil
}

// hasStructured reports whether any structured filter is set.
func (f Filters) hasStructured() bool {
	for _, values := range [][]string{
		f.From, f.To, f.Subject, f.Body, f.Keywords,
		f.AttachmentNames, f.AttachmentHashes,
		f.MessageIDs, f.FolderIDs, f.AccountIDs,
	} {
		if len(values) > 0 {
			return true
		}
	}
	return f.HasAttachment || f.NoAttachment
}

// QueryText builds the composite boolean query expression: one
// parenthesized clause group per populated field, values OR'd within the
// group, groups AND'd together with the mandatory date-range clause last.
// RawQuery mode returns the caller's string verbatim.
func (f Filters) QueryText(dates DateRange) string {
	if f.RawQuery != "" {
		return f.RawQuery
	}

	var groups []string
	appendGroup := func(field string, values []string) {
		if len(values) == 0 {
			return
		}
		clauses := make([]string, 0, len(values))
		for _, v := range values {
			clauses = append(clauses, fmt.Sprintf("%s:%q", field, v))
		}
		groups = append(groups, "("+strings.Join(clauses, " OR ")+")")
	}

	appendGroup("from", f.From)
	appendGroup("to", f.To)
	appendGroup("subject", f.Subject)
	appendGroup("body", f.Body)

	if len(f.Keywords) > 0 {
		quoted := make([]string, 0, len(f.Keywords))
		for _, kw := range f.Keywords {
			quoted = append(quoted, fmt.Sprintf("%q", kw))
		}
		groups = append(groups, "("+strings.Join(quoted, " OR ")+")")
	}

	if f.HasAttachment {
		groups = append(groups, "(has:attachment)")
	}
	if f.NoAttachment {
		groups = append(groups, "(-has:attachment)")
	}
	appendGroup("attachment", f.AttachmentNames)
	appendGroup("hash", f.AttachmentHashes)
	appendGroup("msgid", f.MessageIDs)
	appendGroup("folder", f.FolderIDs)
	appendGroup("account", f.AccountIDs)

	groups = append(groups, fmt.Sprintf("date:[%s..%s]",
		dates.Start.UTC().Format("2006-01-02"), dates.End.UTC().Format("2006-01-02")))

	return strings.Join(groups, " AND ")
}

// xmlQuery is the archive search query document.
type xmlQuery struct {
	XMLName  xml.Name    `xml:"xmlquery"`
	Trace    string      `xml:"trace,attr"`
	Metadata xmlMetadata `xml:"metadata"`
	Muse     xmlMuse     `xml:"muse"`
}

type xmlMetadata struct {
	QueryType    string    `xml:"query-type,attr"`
	Archive      bool      `xml:"archive,attr"`
	Active       bool      `xml:"active,attr"`
	ReturnFields xmlFields `xml:"return-fields"`
}

type xmlFields struct {
	Fields []string `xml:"return-field"`
}

type xmlMuse struct {
	Text string   `xml:"text"`
	Sort *xmlSort `xml:"sort,omitempty"`
}

type xmlSort struct {
	Field string `xml:"field,attr"`
	Order string `xml:"order,attr"`
}

// archiveReturnFields are the record fields requested from the archive.
var archiveReturnFields = []string{
	"id", "subject", "displayfrom", "displayto",
	"receiveddate", "size", "status", "route", "attachmentcount",
}

// ArchiveQueryDocument serializes the filters into the provider's XML query
// document for the archive search endpoint.
func (f Filters) ArchiveQueryDocument(dates DateRange) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}

	doc := xmlQuery{
		Trace: "iql",
		Metadata: xmlMetadata{
			QueryType:    "emailarchive",
			Archive:      true,
			Active:       false,
			ReturnFields: xmlFields{Fields: archiveReturnFields},
		},
		Muse: xmlMuse{Text: f.QueryText(dates)},
	}
	if f.OldestFirst {
		doc.Muse.Sort = &xmlSort{Field: "date", Order: "ascending"}
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal query document: %w", err)
	}
	return xml.Header + string(out), nil
}
