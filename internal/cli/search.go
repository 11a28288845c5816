package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mimecast-cli/internal/mimecast/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the message archive",
	Long: `Search the message archive with structured filters or a raw provider
query. Structured filters are AND'd together; repeating a flag ORs its
values within the field.

Examples:
  mimecast search --from a@example.com --from b@example.com --subject report
  mimecast search --query 'from:"a@example.com"' --start 2026-01-01
  mimecast search --has-attachment --limit 50`,
	RunE: runSearch,
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace message delivery",
	Long: `Trace messages through processing and delivery. Results include one
delivery outcome per recipient plus the message's processing events and
policy matches.

Examples:
  mimecast trace --to user@example.com --start 2026-08-01
  mimecast trace --message-id '<id@example.com>'`,
	RunE: runTrace,
}

// Shared filter flags.
var (
	searchFrom        []string
	searchTo          []string
	searchSubject     []string
	searchBody        []string
	searchKeywords    []string
	searchAttachNames []string
	searchAttachHash  []string
	searchHasAttach   bool
	searchNoAttach    bool
	searchMessageIDs  []string
	searchRawQuery    string
	searchStart       string
	searchEnd         string
	searchPageSize    int
	searchLimit       int
	searchSkip        int
	searchOldestFirst bool
)

// addFilterFlags registers the filter flags shared by search and trace.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&searchFrom, "from", nil, "sender address (repeatable, OR'd)")
	cmd.Flags().StringArrayVar(&searchTo, "to", nil, "recipient address (repeatable, OR'd)")
	cmd.Flags().StringArrayVar(&searchSubject, "subject", nil, "subject term (repeatable, OR'd)")
	cmd.Flags().StringArrayVar(&searchMessageIDs, "message-id", nil, "message id")
	cmd.Flags().StringVar(&searchStart, "start", "", "range start, YYYY-MM-DD or RFC 3339 (default 30 days ago)")
	cmd.Flags().StringVar(&searchEnd, "end", "", "range end (default now)")
	cmd.Flags().IntVar(&searchPageSize, "page-size", 0, "records per request")
	cmd.Flags().IntVar(&searchLimit, "limit", 0, "stop after this many records (0 = all)")
	cmd.Flags().IntVar(&searchSkip, "skip", 0, "starting offset")
	cmd.Flags().BoolVar(&searchOldestFirst, "oldest-first", false, "ask for ascending order")
}

func init() {
	addFilterFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&searchBody, "body", nil, "body term (repeatable, OR'd)")
	searchCmd.Flags().StringArrayVar(&searchKeywords, "keyword", nil, "free keyword (repeatable, OR'd)")
	searchCmd.Flags().StringArrayVar(&searchAttachNames, "attachment-name", nil, "attachment file name")
	searchCmd.Flags().StringArrayVar(&searchAttachHash, "attachment-hash", nil, "attachment hash")
	searchCmd.Flags().BoolVar(&searchHasAttach, "has-attachment", false, "only messages with attachments")
	searchCmd.Flags().BoolVar(&searchNoAttach, "no-attachment", false, "only messages without attachments")
	searchCmd.Flags().StringVar(&searchRawQuery, "query", "", "raw provider query (exclusive with structured filters)")
	rootCmd.AddCommand(searchCmd)

	addFilterFlags(traceCmd)
	rootCmd.AddCommand(traceCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	return runSearchOp(cmd, (*search.Service).Archive)
}

func runTrace(cmd *cobra.Command, _ []string) error {
	return runSearchOp(cmd, (*search.Service).Trace)
}

// runSearchOp builds filters from flags and runs one search operation.
func runSearchOp(
	cmd *cobra.Command,
	op func(*search.Service, context.Context, search.Filters, search.DateRange, search.Options) ([]search.MessageRecord, error),
) error {
	filters := search.Filters{
		From:             searchFrom,
		To:               searchTo,
		Subject:          searchSubject,
		Body:             searchBody,
		Keywords:         searchKeywords,
		AttachmentNames:  searchAttachNames,
		AttachmentHashes: searchAttachHash,
		HasAttachment:    searchHasAttach,
		NoAttachment:     searchNoAttach,
		MessageIDs:       searchMessageIDs,
		RawQuery:         searchRawQuery,
		OldestFirst:      searchOldestFirst,
	}
	if err := filters.Validate(); err != nil {
		return err
	}

	dates, err := parseDateRange(searchStart, searchEnd)
	if err != nil {
		return err
	}

	client, profile, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	pageSize := searchPageSize
	if pageSize == 0 {
		pageSize = profile.PageSize
	}
	opts := search.Options{PageSize: pageSize, Limit: searchLimit, Skip: searchSkip}

	records, err := op(search.NewService(client), cmd.Context(), filters, dates, opts)
	if err != nil {
		return err
	}

	cmd.Printf("%d record(s)\n", len(records))
	return printJSON(cmd, records)
}

// parseDateRange parses the --start/--end flags, defaulting to the last
// 30 days. Dates may be bare days or full RFC 3339 instants.
func parseDateRange(start, end string) (search.DateRange, error) {
	now := time.Now().UTC()
	dates := search.DateRange{Start: now.AddDate(0, 0, -30), End: now}

	var err error
	if start != "" {
		if dates.Start, err = parseDate(start); err != nil {
			return search.DateRange{}, fmt.Errorf("parse --start: %w", err)
		}
	}
	if end != "" {
		if dates.End, err = parseDate(end); err != nil {
			return search.DateRange{}, fmt.Errorf("parse --end: %w", err)
		}
	}
	return dates, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
