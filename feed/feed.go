// Package feed ingests account-update events from a change-feed
// transport into a bounded channel, with cooperative cancellation and
// exponential-backoff reconnection, grounded on the teacher's
// offchain matcher event loop.
package feed

import (
	"context"
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/matchbook-labs/matchbook/metrics"
)

const codespace = "matchbook/feed"

var (
	ErrChannelClosed        = errors.Register(codespace, 1, "receiver channel closed")
	ErrMaxReconnectExceeded = errors.Register(codespace, 2, "max reconnect attempts exceeded")
)

// ConnectionState mirrors the feed metrics bundle's connection_state gauge.
type ConnectionState uint32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// AccountUpdate is one account change pulled off the transport. Updates
// for a single account arrive in-order by WriteVersion; across accounts
// order is not guaranteed.
type AccountUpdate struct {
	Pubkey       [32]byte
	Data         []byte
	WriteVersion uint64
	Slot         uint64
}

// Config tunes ingestion backpressure and reconnection policy.
type Config struct {
	BufferSize           int           // bounded channel capacity, typical 10000
	BaseDelay            time.Duration // reconnect backoff base
	MaxDelay             time.Duration // reconnect backoff cap, default 60s
	MaxReconnectAttempts int           // 0 = unlimited
	Timeout              time.Duration // per-operation timeout, default 30s
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:           10000,
		BaseDelay:            500 * time.Millisecond,
		MaxDelay:             60 * time.Second,
		MaxReconnectAttempts: 0,
		Timeout:              30 * time.Second,
	}
}

// Feed runs one ingestion task: pull updates from a Transport into a
// bounded channel, reconnecting on transport error with exponential
// backoff.
type Feed struct {
	transport Transport
	cfg       Config
	log       log.Logger
	metrics   *metrics.FeedBundle

	updates chan AccountUpdate
	state   ConnectionState
}

// New constructs a Feed over the given transport.
func New(transport Transport, cfg Config, logger log.Logger, bundle *metrics.FeedBundle) *Feed {
	return &Feed{
		transport: transport,
		cfg:       cfg,
		log:       logger,
		metrics:   bundle,
		updates:   make(chan AccountUpdate, cfg.BufferSize),
		state:     StateDisconnected,
	}
}

// Updates returns the channel downstream processing tasks read from.
func (f *Feed) Updates() <-chan AccountUpdate {
	return f.updates
}

// State returns the feed's current connection state.
func (f *Feed) State() ConnectionState {
	return f.state
}

func (f *Feed) setState(s ConnectionState) {
	f.state = s
	if f.metrics != nil {
		f.metrics.ConnectionState.Store(uint32(s))
	}
}

// Run drives the ingestion loop until ctx is cancelled, the transport
// reports the receiver closed, or reconnection is exhausted. Dropping
// ctx is the cooperative-cancellation signal.
func (f *Feed) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f.setState(StateConnecting)
		connectCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		err := f.transport.Connect(connectCtx)
		cancel()
		if err != nil {
			if retryErr := f.backoffOrFail(ctx, &attempt); retryErr != nil {
				return retryErr
			}
			continue
		}

		attempt = 0
		f.setState(StateConnected)
		if err := f.recvLoop(ctx); err != nil {
			if err == ErrChannelClosed {
				return err
			}
			if f.log != nil {
				f.log.Error("feed transport error, reconnecting", "err", err)
			}
			if retryErr := f.backoffOrFail(ctx, &attempt); retryErr != nil {
				return retryErr
			}
			continue
		}
		return nil
	}
}

// recvLoop pulls updates from the transport until it errors or ctx is done.
func (f *Feed) recvLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		recvCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		update, err := f.transport.Recv(recvCtx)
		cancel()
		if err != nil {
			return err
		}

		if f.metrics != nil {
			f.metrics.UpdatesReceived.Add(1)
		}

		select {
		case f.updates <- update:
			continue
		default:
		}

		if f.metrics != nil {
			f.metrics.Dropped.Add(1)
		}
		select {
		case f.updates <- update:
		case <-ctx.Done():
			return nil
		}
	}
}

// backoffOrFail sleeps the exponential-backoff delay for the current
// attempt, or transitions to Failed and returns ErrMaxReconnectExceeded
// once the attempt budget is exhausted.
func (f *Feed) backoffOrFail(ctx context.Context, attempt *int) error {
	if f.metrics != nil {
		f.metrics.Reconnects.Add(1)
	}
	*attempt++
	if f.cfg.MaxReconnectAttempts > 0 && *attempt > f.cfg.MaxReconnectAttempts {
		f.setState(StateFailed)
		return ErrMaxReconnectExceeded
	}

	f.setState(StateReconnecting)
	delay := f.cfg.BaseDelay << uint(*attempt-1)
	if delay > f.cfg.MaxDelay || delay <= 0 {
		delay = f.cfg.MaxDelay
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
