// Command mojito-loadtest drives sign-up workflows through a full engine
// against an in-process remote API and reports submit latency.
package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mojito"
	"github.com/MrEthical07/mojito/challenge"
	"github.com/MrEthical07/mojito/workflow"
)

func main() {
	var (
		workflows   = flag.Int("workflows", 20000, "sign-up workflows to run")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		contended   = flag.Int("contended", 16, "workflows shared by all workers in the contention phase")
		apiDelay    = flag.Duration("api-delay", 2*time.Millisecond, "simulated remote API latency")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *workflows <= 0 || *concurrency <= 0 || *contended <= 0 {
		fmt.Fprintln(os.Stderr, "workflows, concurrency, and contended must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	var remoteCalls int64
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&remoteCalls, 1)
		time.Sleep(*apiDelay)
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	engine, err := buildEngine(remote.URL, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	signUp := runSignUpPhase(ctx, engine, *workflows, *concurrency)
	contention := runContentionPhase(ctx, engine, *contended, *concurrency)

	fmt.Println("---- results ----")
	printStats("signup", signUp)
	printStats("contended", contention)
	fmt.Printf("remote calls=%d\n", atomic.LoadInt64(&remoteCalls))
}

func buildEngine(baseURL string, client redis.UniversalClient) (*mojito.Engine, error) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}

	cfg := mojito.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Session.JWT.PublicKey = pub
	cfg.Limiter.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true

	return mojito.New().WithConfig(cfg).WithRedis(client).Build()
}

func signUpInput(i int) workflow.FormInput {
	return workflow.FormInput{
		workflow.FieldEmailAddress:   fmt.Sprintf("load-%d@mojito.test", i),
		workflow.FieldPassword:       "Abcdef1!",
		workflow.FieldRepeatPassword: "Abcdef1!",
	}
}

// runSignUpPhase gives every operation its own workflow.
func runSignUpPhase(ctx context.Context, engine *mojito.Engine, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				st, err := engine.Start(ctx, workflow.KindSignUp, mojito.StartOptions{})
				if err == nil {
					st, err = engine.Submit(ctx, st.ID, signUpInput(i), challenge.NewStatic("load-token"))
				}
				d := time.Since(t0)
				if err != nil || st.Outcome == nil || st.Outcome.Bucket != workflow.BucketSuccess {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures, 0)
}

// runContentionPhase points every worker at a handful of workflows. Exactly
// one submit per workflow may reach the remote API; the rest must see
// ErrSubmissionInFlight or ErrWorkflowTerminal.
func runContentionPhase(ctx context.Context, engine *mojito.Engine, shared, concurrency int) phaseStats {
	ids := make([]string, 0, shared)
	for i := 0; i < shared; i++ {
		st, err := engine.Start(ctx, workflow.KindSignUp, mojito.StartOptions{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
			os.Exit(1)
		}
		ids = append(ids, st.ID)
	}

	var (
		wg        sync.WaitGroup
		failures  int64
		rejected  int64
		latencies = make([]time.Duration, 0, concurrency)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			t0 := time.Now()
			_, err := engine.Submit(ctx, ids[worker%len(ids)], signUpInput(worker), challenge.NewStatic("load-token"))
			d := time.Since(t0)
			switch {
			case err == nil:
			case errors.Is(err, mojito.ErrSubmissionInFlight), errors.Is(err, mojito.ErrWorkflowTerminal):
				atomic.AddInt64(&rejected, 1)
			default:
				atomic.AddInt64(&failures, 1)
			}
			mu.Lock()
			latencies = append(latencies, d)
			mu.Unlock()
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures, rejected)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	rejected int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures, rejected int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		rejected: rejected,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d rejected=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.rejected,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
