package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/mimecast-cli/internal/config"
	"github.com/custodia-labs/mimecast-cli/internal/mimecast"
)

// newClient authenticates from the saved profile and environment secret
// and returns a ready client. Each CLI invocation is its own session;
// tokens are never cached between runs.
func newClient(ctx context.Context) (*mimecast.Client, *config.Profile, error) {
	profile, err := configStore.Load()
	if errors.Is(err, config.ErrNoProfile) {
		return nil, nil, errors.New("not connected: run 'mimecast connect' first")
	}
	if err != nil {
		return nil, nil, err
	}

	clientID := os.Getenv(envClientID)
	if clientID == "" {
		clientID = profile.ClientID
	}
	secret := os.Getenv(envClientSecret)
	if secret == "" {
		return nil, nil, errors.New("client secret required: set " + envClientSecret)
	}

	session, err := connectSession(ctx, profile.Region, profile.BaseURL, clientID, secret)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	return mimecast.NewClient(session), profile, nil
}
