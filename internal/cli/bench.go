package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	http "github.com/wesleyorama2/curlkit/http"
	"github.com/wesleyorama2/curlkit/internal/output"
	"github.com/wesleyorama2/curlkit/internal/stats"
)

type benchOptions struct {
	transportFlags
	bodyFlags
	requests    int
	concurrency int
	rps         float64
}

func newBenchCmd(a *app) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench METHOD URL",
		Short: "Send the same request repeatedly and report latency percentiles",
		Long: `Send the same request repeatedly from several workers. Each worker owns
its own request builder. Latencies are recorded in an HDR histogram and
reported as percentiles together with status code counts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd, args[0], args[1], opts)
		},
	}

	opts.transportFlags.register(cmd, false)
	opts.bodyFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.requests, "requests", "n", 100, "Total number of requests")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 10, "Number of concurrent workers")
	cmd.Flags().Float64Var(&opts.rps, "rps", 0, "Maximum requests per second (0 for unlimited)")

	return cmd
}

func (a *app) runBench(cmd *cobra.Command, methodName, target string, opts *benchOptions) error {
	method, _, err := http.LookupMethod(methodName)
	if err != nil {
		return err
	}
	if opts.requests <= 0 {
		return fmt.Errorf("--requests must be positive")
	}
	if opts.concurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive")
	}
	if opts.rps < 0 {
		return fmt.Errorf("--rps must not be negative")
	}

	body, enc, err := opts.bodyFlags.build()
	if err != nil {
		return err
	}
	url, headers := a.resolveTarget(target, opts.headers)

	builders := make([]*http.Builder, opts.concurrency)
	for i := range builders {
		if builders[i], err = a.newBuilder(cmd, &opts.transportFlags); err != nil {
			return err
		}
		// concurrent workers must not race on one jar file
		builders[i].SetCookieJar("")
	}

	var limiter *rate.Limiter
	if opts.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rps), 1)
	}

	a.logger.Info().
		Str("method", method.String()).
		Str("url", url).
		Int("requests", opts.requests).
		Int("concurrency", opts.concurrency).
		Float64("rps", opts.rps).
		Msg("starting bench")

	recorder := stats.NewRecorder()
	ctx := cmd.Context()
	jobs := make(chan struct{})

	var wg sync.WaitGroup
	for _, b := range builders {
		wg.Add(1)
		go func(b *http.Builder) {
			defer wg.Done()
			for range jobs {
				recorder.Record(sendOnce(ctx, b, method, url, headers, body, enc))
			}
		}(b)
	}

	err = dispatch(ctx, jobs, opts.requests, limiter)
	close(jobs)
	wg.Wait()

	summary := recorder.Summary()
	a.logger.Info().
		Int64("total", summary.Total).
		Int64("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("bench complete")

	fmt.Fprint(cmd.OutOrStdout(), output.FormatSummary(a.format, summary, a.noColor))
	return err
}

// dispatch hands out n jobs, waiting on limiter between them when set.
func dispatch(ctx context.Context, jobs chan<- struct{}, n int, limiter *rate.Limiter) error {
	for i := 0; i < n; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func sendOnce(ctx context.Context, b *http.Builder, method http.Method, url string, headers []string, body interface{}, enc http.Encoding) stats.Sample {
	start := time.Now()
	resp, err := b.Send(ctx, method.String(), url, headers, body, enc)
	sample := stats.Sample{Latency: time.Since(start)}
	if err != nil {
		sample.Err = err.Error()
		return sample
	}

	sample.StatusCode = resp.HTTPCode()
	if terr := resp.TransportError(); terr != nil {
		sample.Err = terr.Error()
	}
	if text, err := resp.Body(); err == nil {
		sample.Bytes = int64(len(text))
	}
	return sample
}
