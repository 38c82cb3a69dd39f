// Package keepalive periodically pings the service's own health endpoint so
// hosting platforms that idle quiet backends keep it awake.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Result is the outcome of one ping.
type Result struct {
	Status int
	Uptime time.Duration
	HeapMB uint64
}

// Pinger schedules health pings.
type Pinger struct {
	url     string
	every   time.Duration
	client  *http.Client
	logger  *zap.Logger
	started time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// New creates a pinger hitting url every interval.
func New(url string, every time.Duration, logger *zap.Logger) (*Pinger, error) {
	if url == "" {
		return nil, fmt.Errorf("keepalive url is empty")
	}
	if every <= 0 {
		return nil, fmt.Errorf("keepalive interval must be positive, got %s", every)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pinger{
		url:     url,
		every:   every,
		client:  &http.Client{Timeout: pingTimeout},
		logger:  logger,
		started: time.Now(),
	}, nil
}

// Ping issues one GET against the health URL.
func (p *Pinger) Ping(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	res := Result{
		Uptime: time.Since(p.started).Truncate(time.Second),
		HeapMB: mem.HeapAlloc / 1024 / 1024,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return res, fmt.Errorf("building ping request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("pinging %s: %w", p.url, err)
	}
	resp.Body.Close()
	res.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("pinging %s: status %d", p.url, resp.StatusCode)
	}
	return res, nil
}

func (p *Pinger) run() {
	res, err := p.Ping(context.Background())
	if err != nil {
		p.logger.Warn("keep-alive ping failed",
			zap.Error(err),
			zap.Duration("uptime", res.Uptime),
			zap.Uint64("heap_mb", res.HeapMB))
		return
	}
	p.logger.Info("keep-alive ping",
		zap.Int("status", res.Status),
		zap.Duration("uptime", res.Uptime),
		zap.Uint64("heap_mb", res.HeapMB))
}

// Start schedules the ping job. Calling it twice is a no-op.
func (p *Pinger) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", p.every), p.run); err != nil {
		return fmt.Errorf("add keep-alive job: %w", err)
	}
	c.Start()
	p.cron = c
	p.running = true
	p.logger.Info("keep-alive scheduled", zap.String("url", p.url), zap.Duration("every", p.every))
	return nil
}

// Stop halts the schedule and waits for a running ping to finish.
func (p *Pinger) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.cron = nil
	p.running = false
}
