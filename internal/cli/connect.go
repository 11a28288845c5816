package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/mimecast-cli/internal/config"
	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

// Environment variables consulted for credentials.
const (
	envClientID     = "MIMECAST_CLIENT_ID"
	envClientSecret = "MIMECAST_CLIENT_SECRET"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authenticate and save the connection profile",
	Long: `Authenticate against a Mimecast region with OAuth2 client credentials.

The client secret is read from MIMECAST_CLIENT_SECRET or prompted for; it
is used to verify the credentials and then discarded. Only the region,
client id and optional base URL are saved to the profile.

Examples:
  mimecast connect --region US --client-id <id>
  mimecast connect --base-url https://sandbox.example.com --client-id <id>`,
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the saved connection profile",
	RunE:  runDisconnect,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved connection profile",
	RunE:  runStatus,
}

// Flags for connect.
var (
	connectRegion   string
	connectClientID string
	connectBaseURL  string
	connectPageSize int
)

func init() {
	connectCmd.Flags().StringVar(&connectRegion, "region", "",
		"provider region: EU, US, DE, CA, ZA, AU or Offshore")
	connectCmd.Flags().StringVar(&connectClientID, "client-id", "",
		"OAuth2 client id (defaults to MIMECAST_CLIENT_ID)")
	connectCmd.Flags().StringVar(&connectBaseURL, "base-url", "",
		"custom API base URL, overriding the region table")
	connectCmd.Flags().IntVar(&connectPageSize, "page-size", 0,
		"default page size for searches")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(statusCmd)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	clientID := connectClientID
	if clientID == "" {
		clientID = os.Getenv(envClientID)
	}
	if clientID == "" {
		return errors.New("client id required: pass --client-id or set " + envClientID)
	}
	if connectRegion == "" && connectBaseURL == "" {
		return errors.New("pass --region or --base-url")
	}

	secret, err := resolveSecret(cmd)
	if err != nil {
		return err
	}

	session, err := connectSession(cmd.Context(), connectRegion, connectBaseURL, clientID, secret)
	if err != nil {
		return err
	}

	profile := &config.Profile{
		Region:   connectRegion,
		ClientID: clientID,
		BaseURL:  connectBaseURL,
		PageSize: connectPageSize,
	}
	if err := configStore.Save(profile); err != nil {
		return err
	}

	info := session.Info()
	cmd.Printf("Connected to %s\n", info.BaseURL)
	cmd.Printf("Token valid until %s\n", info.TokenExpiry.Format("2006-01-02 15:04:05 MST"))
	cmd.Printf("Profile saved to %s\n", configStore.Path())
	return nil
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	if err := configStore.Delete(); err != nil {
		return err
	}
	cmd.Println("Profile removed.")
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	profile, err := configStore.Load()
	if errors.Is(err, config.ErrNoProfile) {
		cmd.Println("Not connected. Run 'mimecast connect'.")
		return nil
	}
	if err != nil {
		return err
	}

	if profile.BaseURL != "" {
		cmd.Printf("Base URL:  %s\n", profile.BaseURL)
	} else {
		cmd.Printf("Region:    %s\n", profile.Region)
	}
	cmd.Printf("Client ID: %s\n", profile.ClientID)
	return nil
}

// resolveSecret reads the client secret from the environment or, when
// attached to a terminal, prompts without echo.
func resolveSecret(cmd *cobra.Command) (string, error) {
	if secret := os.Getenv(envClientSecret); secret != "" {
		return secret, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("client secret required: set " + envClientSecret)
	}

	cmd.Print("Client secret: ")
	secret, err := term.ReadPassword(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("read client secret: %w", err)
	}
	if len(secret) == 0 {
		return "", errors.New("client secret is empty")
	}
	return string(secret), nil
}

// connectSession authenticates against a region or a custom base URL.
func connectSession(
	ctx context.Context, region, baseURL, clientID, secret string,
) (*mimecast.Session, error) {
	if baseURL != "" {
		return mimecast.ConnectURL(ctx, baseURL, clientID, secret)
	}
	return mimecast.Connect(ctx, region, clientID, secret)
}
