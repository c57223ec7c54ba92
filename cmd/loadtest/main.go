package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type config struct {
	url         string
	total       int
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	TotalRequests   int64            `json:"total_requests"`
	Success         int64            `json:"success"`
	Failed          int64            `json:"failed"`
	ErrorRate       float64          `json:"error_rate"`
	RPS             float64          `json:"rps"`
	Outcomes        map[string]int64 `json:"outcomes"`
	LatencyMs       latencySummary   `json:"latency_ms"`
}

// collector агрегирует результаты по outcome-кодам и латентности.
type collector struct {
	mu        sync.Mutex
	total     int64
	success   int64
	failed    int64
	outcomes  map[string]int64
	latencies []float64
}

func newCollector() *collector {
	return &collector{outcomes: make(map[string]int64)}
}

func (c *collector) record(rc string, latency time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if ok {
		c.success++
	} else {
		c.failed++
	}
	if rc == "" {
		rc = "transport_error"
	}
	c.outcomes[rc]++
	c.latencies = append(c.latencies, float64(latency.Milliseconds()))
}

func (c *collector) buildReport(startedAt time.Time, elapsed time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	rep := report{
		StartedAt:       startedAt,
		DurationSeconds: elapsed.Seconds(),
		TotalRequests:   c.total,
		Success:         c.success,
		Failed:          c.failed,
		Outcomes:        c.outcomes,
		LatencyMs:       summarize(c.latencies),
	}
	if c.total > 0 {
		rep.ErrorRate = float64(c.failed) / float64(c.total)
	}
	if elapsed > 0 {
		rep.RPS = float64(c.total) / elapsed.Seconds()
	}
	return rep
}

func summarize(latencies []float64) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

type purchaseResponse struct {
	RC    string `json:"rc"`
	Error string `json:"error,omitempty"`
}

func runWorker(ctx context.Context, cfg config, client *http.Client, jobs <-chan struct{}, stats *collector) {
	for range jobs {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		rc, ok := doPurchase(ctx, cfg, client)
		stats.record(rc, time.Since(start), ok)
	}
}

func doPurchase(ctx context.Context, cfg config, client *http.Client) (string, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	var body purchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false
	}

	return body.RC, resp.StatusCode == http.StatusOK && body.RC == "RC_OK"
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.url, "url", "http://localhost:9090/purchase", "purchase endpoint")
	flag.IntVar(&cfg.total, "total", 100, "total number of purchase attempts")
	flag.DurationVar(&cfg.duration, "duration", 0, "test duration (overrides -total when set)")
	flag.IntVar(&cfg.concurrency, "concurrency", 4, "number of concurrent workers")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.StringVar(&cfg.outputPath, "output", "", "write JSON report to file")
	flag.Parse()

	if cfg.concurrency <= 0 {
		cfg.concurrency = 1
	}

	ctx := context.Background()
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	client := &http.Client{Timeout: cfg.timeout}
	stats := newCollector()
	jobs := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(ctx, cfg, client, jobs, stats)
		}()
	}

	startedAt := time.Now()
	if cfg.duration > 0 {
		for ctx.Err() == nil {
			select {
			case jobs <- struct{}{}:
			case <-ctx.Done():
			}
		}
	} else {
		for i := 0; i < cfg.total; i++ {
			jobs <- struct{}{}
		}
	}
	close(jobs)
	wg.Wait()

	rep := stats.buildReport(startedAt, time.Since(startedAt))

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if cfg.outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.outputPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output dir: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(cfg.outputPath, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}
}
