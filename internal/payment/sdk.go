package payment

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SDKState int

const (
	SDKUnloaded SDKState = iota
	SDKLoading
	SDKReady
	SDKFailed
)

func (s SDKState) String() string {
	switch s {
	case SDKLoading:
		return "loading"
	case SDKReady:
		return "ready"
	case SDKFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

const (
	DefaultSDKTimeout = 20 * time.Second
	paypalScriptBase  = "https://www.paypal.com/sdk/js"
)

type SDKConfig struct {
	ClientID string
	Currency string
	Locale   string
	Sandbox  bool
	Timeout  time.Duration
}

// SDK tracks whether the provider's browser SDK can be offered. Loading means
// warming the provider's credentials; at most one load runs at a time and
// concurrent callers wait for it. A failed load is retried by the next caller.
type SDK struct {
	cfg    SDKConfig
	warmup func(context.Context) error
	log    *zap.Logger

	mu    sync.Mutex
	state SDKState
	done  chan struct{}
}

func NewSDK(cfg SDKConfig, warmup func(context.Context) error, log *zap.Logger) *SDK {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSDKTimeout
	}
	return &SDK{cfg: cfg, warmup: warmup, log: log}
}

func (s *SDK) State() SDKState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load resolves true once the SDK is usable. It never returns an error;
// failures and timeouts resolve false.
func (s *SDK) Load(ctx context.Context) bool {
	s.mu.Lock()
	switch s.state {
	case SDKReady:
		s.mu.Unlock()
		return true
	case SDKLoading:
		done := s.done
		s.mu.Unlock()
		select {
		case <-done:
			return s.State() == SDKReady
		case <-ctx.Done():
			return false
		}
	}
	s.state = SDKLoading
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	// the load outlives the request that started it; other callers are waiting on it
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- s.warmup(loadCtx) }()

	var err error
	select {
	case err = <-errc:
	case <-loadCtx.Done():
		err = loadCtx.Err()
	}

	s.mu.Lock()
	if err != nil {
		s.state = SDKFailed
		s.log.Warn("payment sdk load failed", zap.Error(err))
	} else {
		s.state = SDKReady
	}
	close(done)
	s.mu.Unlock()

	return err == nil
}

// ScriptURL is the browser script to include once the SDK is ready.
func (s *SDK) ScriptURL() string {
	q := url.Values{}
	q.Set("client-id", s.cfg.ClientID)
	q.Set("currency", s.cfg.Currency)
	q.Set("intent", "capture")
	q.Set("components", "buttons")
	q.Set("locale", s.cfg.Locale)
	q.Set("disable-funding", "paylater")
	if s.cfg.Sandbox {
		q.Set("debug", "true")
	}
	return paypalScriptBase + "?" + q.Encode()
}
