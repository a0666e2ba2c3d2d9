package remote

import (
	"context"
	"fmt"

	"github.com/rustyeddy/tradejournal/config"
)

// Open builds the Store selected by cfg.Driver. The "none" driver (or an
// empty one) returns a nil Store and no error: sync is disabled.
func Open(ctx context.Context, cfg config.RemoteConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := NewGormStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := DialRedis(ctx, cfg.Addr, cfg.Password, cfg.DB, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "http":
		timeout, err := cfg.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("remote timeout: %w", err)
		}
		return NewHTTPStore(cfg.URL, cfg.Token, timeout), nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}
