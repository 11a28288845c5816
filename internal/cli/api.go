package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Call a resource endpoint directly",
	Long: `Issue a raw call against any resource path under /api/v2. The request
body is passed through unchanged (wrapped in the provider's one-element
data array) and the response data is printed as JSON.`,
}

var apiGetCmd = &cobra.Command{
	Use:   "get [path]",
	Short: "Issue a GET request",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIGet,
}

var apiPostCmd = &cobra.Command{
	Use:   "post [path]",
	Short: "Issue a POST request",
	Long: `Issue a POST request. With --all, the response is paginated to
completion by following the provider's cursor; with --first-page only the
first page is fetched.

Examples:
  mimecast api post account/get-account
  mimecast api post ttp/url/get-logs --data '{"scanResult":"malicious"}' --all`,
	Args: cobra.ExactArgs(1),
	RunE: runAPIPost,
}

// Flags for api calls.
var (
	apiData      string
	apiQuery     []string
	apiAll       bool
	apiFirstPage bool
)

func init() {
	apiPostCmd.Flags().StringVarP(&apiData, "data", "d", "", "JSON request object")
	apiPostCmd.Flags().BoolVar(&apiAll, "all", false, "follow pagination to completion")
	apiPostCmd.Flags().BoolVar(&apiFirstPage, "first-page", false, "fetch only the first page")
	apiGetCmd.Flags().StringArrayVarP(&apiQuery, "query", "q", nil,
		"query parameter key=value (can be repeated)")

	apiCmd.AddCommand(apiGetCmd)
	apiCmd.AddCommand(apiPostCmd)
	rootCmd.AddCommand(apiCmd)
}

func runAPIGet(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	query, err := parseQueryFlags(apiQuery)
	if err != nil {
		return err
	}

	env, err := client.Execute(cmd.Context(), http.MethodGet, args[0], nil, query)
	if err != nil {
		return err
	}

	var data any
	if err := env.DecodeData(&data); err != nil {
		return err
	}
	return printJSON(cmd, data)
}

func runAPIPost(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	var payload map[string]any
	if apiData != "" {
		if err := json.Unmarshal([]byte(apiData), &payload); err != nil {
			return fmt.Errorf("parse --data: %w", err)
		}
	}

	if apiAll || apiFirstPage {
		records, err := client.FetchAll(cmd.Context(), args[0], payload, apiFirstPage)
		if err != nil {
			return err
		}
		return printJSON(cmd, records)
	}

	env, err := client.Execute(cmd.Context(), http.MethodPost, args[0], payload, nil)
	if err != nil {
		return err
	}

	var data any
	if err := env.DecodeData(&data); err != nil {
		return err
	}
	return printJSON(cmd, data)
}

// parseQueryFlags converts repeated key=value flags into query parameters.
func parseQueryFlags(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	query := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", pair)
		}
		query.Set(key, value)
	}
	return query, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
