package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

func testDateRange() DateRange {
	return DateRange{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFilters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		wantErr bool
	}{
		{name: "empty", filters: Filters{}},
		{name: "structured only", filters: Filters{From: []string{"a@x.com"}}},
		{name: "raw only", filters: Filters{RawQuery: `from:"a@x.com"`}},
		{
			name:    "attachment presence conflict",
			filters: Filters{HasAttachment: true, NoAttachment: true},
			wantErr: true,
		},
		{
			name:    "raw plus structured",
			filters: Filters{RawQuery: "boom", Subject: []string{"report"}},
			wantErr: true,
		},
		{
			name:    "raw plus attachment flag",
			filters: Filters{RawQuery: "boom", HasAttachment: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, mimecast.ErrInvalidFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQueryText_GroupsAndDateRange(t *testing.T) {
	filters := Filters{
		From:    []string{"a@x.com", "b@x.com"},
		Subject: []string{"report"},
	}

	text := filters.QueryText(testDateRange())
	groups := strings.Split(text, " AND ")

	assert.Contains(t, groups, `(from:"a@x.com" OR from:"b@x.com")`)
	assert.Contains(t, groups, `(subject:"report")`)
	assert.Contains(t, groups, "date:[2026-01-01..2026-02-01]")
	assert.Len(t, groups, 3)

	// Date range is the trailing clause.
	assert.Equal(t, "date:[2026-01-01..2026-02-01]", groups[len(groups)-1])
}

func TestQueryText_AttachmentClauses(t *testing.T) {
	has := Filters{HasAttachment: true, AttachmentNames: []string{"report.pdf"}}
	text := has.QueryText(testDateRange())
	assert.Contains(t, text, "(has:attachment)")
	assert.Contains(t, text, `(attachment:"report.pdf")`)

	no := Filters{NoAttachment: true}
	assert.Contains(t, no.QueryText(testDateRange()), "(-has:attachment)")
}

func TestQueryText_RawQueryVerbatim(t *testing.T) {
	filters := Filters{RawQuery: `from:"a@x.com" AND NOT subject:"spam"`}
	assert.Equal(t, `from:"a@x.com" AND NOT subject:"spam"`, filters.QueryText(testDateRange()))
}

func TestArchiveQueryDocument(t *testing.T) {
	filters := Filters{Subject: []string{"report"}}

	doc, err := filters.ArchiveQueryDocument(testDateRange())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `query-type="emailarchive"`)
	assert.Contains(t, doc, `archive="true"`)
	assert.Contains(t, doc, "<return-field>id</return-field>")
	// The muse text is XML-escaped inside the document.
	assert.Contains(t, doc, "subject:&#34;report&#34;")
}

func TestArchiveQueryDocument_OldestFirst(t *testing.T) {
	filters := Filters{Subject: []string{"report"}, OldestFirst: true}

	doc, err := filters.ArchiveQueryDocument(testDateRange())
	require.NoError(t, err)
	assert.Contains(t, doc, `<sort field="date" order="ascending">`)
}

func TestArchiveQueryDocument_InvalidFilters(t *testing.T) {
	filters := Filters{HasAttachment: true, NoAttachment: true}

	_, err := filters.ArchiveQueryDocument(testDateRange())
	assert.ErrorIs(t, err, mimecast.ErrInvalidFilter)
}
