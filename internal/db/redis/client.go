package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName = "vsetbrowse"
	readyPollInterval = 100 * time.Millisecond
)

// Config holds connection parameters for a Redis 8+ server.
type Config struct {
	Addrs      []string
	Username   string
	Password   string
	DB         int
	ClientName string // CLIENT SETNAME value, defaults to "vsetbrowse"
}

// Store talks to Redis vector sets through a single rueidis client.
type Store struct {
	client rueidis.Client
}

// NewStore connects to the first reachable address of cfg.Addrs.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
		ClientName:  name,
		// attribute payloads change under VSETATTR from other clients
		DisableCache: true,
		// VSIM and VINFO replies are read as flat arrays
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping sends PING.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings immediately and then every 100ms until the server
// answers or timeout passes.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = s.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, errors.Join(ctx.Err(), lastErr))
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
