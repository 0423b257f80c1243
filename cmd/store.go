package cmd

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"realtor-extractor/config"
	"realtor-extractor/storage"
	"realtor-extractor/utils"
)

// openStore connects the configured persistence backend. It returns a nil
// Store for the "none" driver.
func openStore(ctx context.Context, c *config.Config, log utils.Logger) (storage.Store, error) {
	retry := utils.RetryConfig{
		MaxAttempts: c.DBConnectRetries,
		BaseDelay:   2 * time.Second,
		Logger:      log,
	}

	switch c.StoreDriver {
	case config.StoreDriverNone, "":
		return nil, nil
	case config.StoreDriverPostgres:
		s, err := storage.NewPostgresStore(ctx, c.DSN(), retry, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreDriverBackend:
		client := storage.NewBackendClient(c.BackendURL, c.BackendTimeout, log)
		if err := retry.Do(ctx, "backend health", client.Health); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, eris.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
}
