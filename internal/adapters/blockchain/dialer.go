package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

const (
	// DefaultLocalAttempts bounds how long Dial waits for a freshly started
	// local node to accept requests
	DefaultLocalAttempts = 25
	defaultLocalDelay    = 200 * time.Millisecond
)

// Dialer opens node connections
type Dialer struct {
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

// NewDialer creates a new dialer
func NewDialer(log *slog.Logger) *Dialer {
	return &Dialer{
		attempts: DefaultLocalAttempts,
		delay:    defaultLocalDelay,
		log:      log.With("component", "Dialer"),
	}
}

// Dial connects to rpcURL and checks that it answers eth_chainId. Loopback
// endpoints are retried until the node comes up; remote endpoints get a
// single attempt.
func (d *Dialer) Dial(ctx context.Context, rpcURL string) (usecase.NodeProvider, error) {
	attempts := uint(1)
	if isLoopback(rpcURL) {
		attempts = d.attempts
	}

	var client *Client
	err := retry.Do(
		func() error {
			c, err := d.connect(ctx, rpcURL)
			if err != nil {
				return err
			}
			client = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(d.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.log.Debug("Node not ready", "url", rpcURL, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	return client, nil
}

func (d *Dialer) connect(ctx context.Context, rpcURL string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	c := newClient(rc)
	if _, err := c.ChainID(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// DialStream connects to a websocket endpoint for head subscriptions
func (d *Dialer) DialStream(ctx context.Context, wsURL string) (usecase.ChainSource, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid streaming endpoint %q: %w", wsURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("streaming endpoint must use ws:// or wss://, got %q", wsURL)
	}

	d.log.Debug("Dialing stream", "url", u.Redacted())
	rc, err := rpc.DialContext(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.Redacted(), err)
	}
	return newClient(rc), nil
}

func isLoopback(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

var (
	_ usecase.NodeDialer   = (*Dialer)(nil)
	_ usecase.StreamDialer = (*Dialer)(nil)
)
