package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/sigdex/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName  = "sigdex"
	defaultDialTimeout = 5 * time.Second

	readyBackoffMin = 100 * time.Millisecond
	readyBackoffMax = 2 * time.Second
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName shows up in CLIENT LIST. Defaults to "sigdex".
	ClientName  string
	DialTimeout time.Duration
}

// Store implements db.Store via rueidis against Redis 8+, where the Query
// Engine (FT.*) is built in.
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis. Client-side caching is off: signal hashes are
// rewritten in place by upserts and every read goes through FT.SEARCH anyway.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("addrs is required")
	}
	if cfg.ClientName == "" {
		cfg.ClientName = defaultClientName
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   cfg.ClientName,
		Dialer:       net.Dialer{Timeout: cfg.DialTimeout},
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH parsing expects RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", strings.Join(cfg.Addrs, ","), err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with exponential backoff until Redis answers or the
// timeout expires. The last ping error is returned with the timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffMin
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("timeout waiting for database: %w", errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server reply containing substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
