package googlecloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"
	"github.com/rs/zerolog"
)

// Client keeps the audit trail of sheet jobs in Cloud Datastore.
type Client struct {
	ds    *datastore.Client
	retry RetryConfig
}

// NewClient creates a Datastore client for projectID. The official client
// honours DATASTORE_EMULATOR_HOST on its own.
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("gcp project id is empty")
	}
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		zerolog.Ctx(ctx).Info().Str("emulator", emulatorHost).Msg("datastore client uses emulator")
	}

	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &Client{ds: ds, retry: DefaultRetryConfig()}, nil
}

// Close closes the underlying datastore client.
func (c *Client) Close() error {
	return c.ds.Close()
}
