package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"malti-dashboard/internal/logger"
	"malti-dashboard/internal/model"
)

type Config struct {
	BaseURL       string
	Total         int
	Rate          int
	Concurrency   int
	RepeatPercent int
	Filtered      int
}

func parseFlags() *Config {
	c := &Config{}
	flag.StringVar(&c.BaseURL, "base-url", "", "Dashboard base URL, e.g. http://localhost:8080 (required)")
	flag.IntVar(&c.Total, "total", 1000, "Total requests")
	flag.IntVar(&c.Rate, "rate", 50, "Requests per second")
	flag.IntVar(&c.Concurrency, "concurrency", 0, "Worker count (0=auto)")
	flag.IntVar(&c.RepeatPercent, "repeat-percent", 0, "Share of requests replaying an earlier query")
	flag.IntVar(&c.Filtered, "filtered-percent", 30, "Share of requests carrying a tag filter")
	flag.Parse()

	if c.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -base-url is required")
		flag.Usage()
		os.Exit(1)
	}

	if c.Concurrency == 0 {
		c.Concurrency = c.Rate / 5
		if c.Concurrency < 4 {
			c.Concurrency = 4
		}
	}

	c.RepeatPercent = clampPercent(c.RepeatPercent)
	c.Filtered = clampPercent(c.Filtered)
	return c
}

func clampPercent(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

// Stats counts outcomes. Superseded responses (409) are expected under
// concurrency and tracked apart from failures.
type Stats struct {
	ok         uint64
	superseded uint64
	errors     uint64
	latency    int64 // microseconds
}

func (s *Stats) AddOK(duration time.Duration) {
	atomic.AddUint64(&s.ok, 1)
	atomic.AddInt64(&s.latency, duration.Microseconds())
}

func (s *Stats) AddSuperseded() {
	atomic.AddUint64(&s.superseded, 1)
}

func (s *Stats) AddError() {
	atomic.AddUint64(&s.errors, 1)
}

func (s *Stats) StartLogger(ctx context.Context, log *zap.Logger) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var lastOK, lastErr uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok := atomic.LoadUint64(&s.ok)
			errs := atomic.LoadUint64(&s.errors)
			latTotal := atomic.LoadInt64(&s.latency)

			curOK := ok - lastOK
			curErr := errs - lastErr
			lastOK, lastErr = ok, errs

			avgLat := 0.0
			if ok > 0 {
				avgLat = float64(latTotal) / float64(ok) / 1000.0
			}

			log.Info("stats",
				zap.Uint64("ok", curOK),
				zap.Uint64("errors", curErr),
				zap.Uint64("superseded_total", atomic.LoadUint64(&s.superseded)),
				zap.Float64("avg_latency_ms", avgLat),
				zap.Uint64("ok_total", ok),
			)
		}
	}
}

// QueryPool remembers recent queries so they can be replayed.
type QueryPool struct {
	mu  sync.RWMutex
	buf []url.Values
	max int
}

func NewQueryPool(max int) *QueryPool {
	return &QueryPool{buf: make([]url.Values, 0, max), max: max}
}

func (p *QueryPool) Add(q url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) >= p.max {
		p.buf = p.buf[1:]
	}
	p.buf = append(p.buf, cloneValues(q))
}

func (p *QueryPool) GetRandom(rng *rand.Rand) (url.Values, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.buf) == 0 {
		return nil, false
	}
	return cloneValues(p.buf[rng.Intn(len(p.buf))]), true
}

func main() {
	cfg := parseFlags()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	stats := &Stats{}
	pool := NewQueryPool(1000)
	target := cfg.BaseURL + "/api/dashboard"

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency,
			MaxIdleConnsPerHost: cfg.Concurrency,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	log.Info("starting load test",
		zap.String("target", target),
		zap.Int("rate", cfg.Rate),
		zap.Int("total", cfg.Total),
		zap.Int("workers", cfg.Concurrency),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go stats.StartLogger(ctx, log)

	jobs := make(chan struct{}, cfg.Rate*2)
	var wg sync.WaitGroup
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		w := worker{
			client: client,
			target: target,
			stats:  stats,
			pool:   pool,
			cfg:    cfg,
			rng:    rand.New(rand.NewSource(rng.Int63())),
		}
		go w.run(jobs, &wg)
	}

	remaining := cfg.Total
	for remaining > 0 {
		start := time.Now()
		batch := cfg.Rate
		if remaining < batch {
			batch = remaining
		}

		for i := 0; i < batch; i++ {
			jobs <- struct{}{}
		}
		remaining -= batch

		elapsed := time.Since(start)
		if elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}

	close(jobs)
	wg.Wait()

	log.Info("done",
		zap.Uint64("ok_total", atomic.LoadUint64(&stats.ok)),
		zap.Uint64("superseded_total", atomic.LoadUint64(&stats.superseded)),
		zap.Uint64("errors_total", atomic.LoadUint64(&stats.errors)),
	)
}

type worker struct {
	client *http.Client
	target string
	stats  *Stats
	pool   *QueryPool
	cfg    *Config
	rng    *rand.Rand
}

func (w worker) run(jobs <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for range jobs {
		q := w.pickQuery()
		start := time.Now()

		status, err := fetch(w.client, w.target+"?"+q.Encode())
		switch {
		case err != nil:
			w.stats.AddError()
		case status == http.StatusConflict:
			w.stats.AddSuperseded()
		default:
			w.stats.AddOK(time.Since(start))
		}
	}
}

func fetch(client *http.Client, target string) (int, error) {
	resp, err := client.Get(target)
	if err != nil {
		return 0, err
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return resp.StatusCode, fmt.Errorf("http status: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

var (
	services = []string{"billing", "auth", "catalog"}
	methods  = []string{"GET", "POST", "PUT", "DELETE"}
)

func (w worker) pickQuery() url.Values {
	if w.cfg.RepeatPercent > 0 && w.rng.Intn(100) < w.cfg.RepeatPercent {
		if q, ok := w.pool.GetRandom(w.rng); ok {
			return q
		}
	}
	q := randomQuery(w.rng, w.cfg.Filtered)
	w.pool.Add(q)
	return q
}

func randomQuery(rng *rand.Rand, filteredPercent int) url.Values {
	ranges := model.TimeRanges()
	q := url.Values{}
	q.Set("hours", strconv.Itoa(ranges[rng.Intn(len(ranges))].Hours))
	if rng.Intn(100) < filteredPercent {
		q.Set("service", services[rng.Intn(len(services))])
		if rng.Intn(2) == 0 {
			q.Set("method", methods[rng.Intn(len(methods))])
		}
	}
	return q
}

func cloneValues(q url.Values) url.Values {
	clone := make(url.Values, len(q))
	for k, v := range q {
		clone[k] = append([]string(nil), v...)
	}
	return clone
}
