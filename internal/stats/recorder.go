// Package stats aggregates the outcome of repeated request executions.
package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1us to 1 hour.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Recorder collects latencies in an HDR histogram together with status and
// error counts.
//
// Recorder is safe for concurrent use. Counters are atomic, the histogram
// and the tallies are guarded by a mutex.
type Recorder struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	statuses map[int]int64
	errors   map[string]int64

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64

	startTime time.Time
}

// NewRecorder creates an empty Recorder. The elapsed time reported by
// Summary is measured from this call.
func NewRecorder() *Recorder {
	return &Recorder{
		hist:      hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		statuses:  make(map[int]int64),
		errors:    make(map[string]int64),
		startTime: time.Now(),
	}
}

// Sample is the outcome of one execution.
type Sample struct {
	Latency    time.Duration
	StatusCode int
	Bytes      int64
	// Err is the transport failure, empty when the exchange completed.
	Err string
}

// Success reports whether the sample completed with a 2xx or 3xx status.
func (s Sample) Success() bool {
	return s.Err == "" && s.StatusCode >= 200 && s.StatusCode < 400
}

// Record adds one sample.
func (r *Recorder) Record(s Sample) {
	micros := s.Latency.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.mu.Lock()
	r.hist.RecordValue(micros)
	if s.Err != "" {
		r.errors[s.Err]++
	} else {
		r.statuses[s.StatusCode]++
	}
	r.mu.Unlock()

	r.total.Add(1)
	r.bytes.Add(s.Bytes)
	if s.Success() {
		r.succeeded.Add(1)
	} else {
		r.failed.Add(1)
	}
}

// LatencyStats holds latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	StdDev time.Duration `json:"stdDev" yaml:"stdDev"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
}

// StatusCount is the number of responses with one status code.
type StatusCount struct {
	Code  int   `json:"code" yaml:"code"`
	Count int64 `json:"count" yaml:"count"`
}

// ErrorCount is the number of executions that failed with one message.
type ErrorCount struct {
	Message string `json:"message" yaml:"message"`
	Count   int64  `json:"count" yaml:"count"`
}

// Summary is a point-in-time view of a Recorder.
type Summary struct {
	Total     int64         `json:"total" yaml:"total"`
	Succeeded int64         `json:"succeeded" yaml:"succeeded"`
	Failed    int64         `json:"failed" yaml:"failed"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	RPS       float64       `json:"rps" yaml:"rps"`
	Latency   LatencyStats  `json:"latency" yaml:"latency"`
	Statuses  []StatusCount `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Errors    []ErrorCount  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SuccessRate returns the fraction of successful executions, 0 when empty.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total)
}

// Summary returns the current statistics. Statuses are sorted by code and
// errors by descending count.
func (r *Recorder) Summary() Summary {
	elapsed := time.Since(r.startTime)
	s := Summary{
		Total:     r.total.Load(),
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		Bytes:     r.bytes.Load(),
		Elapsed:   elapsed,
	}
	if elapsed > 0 {
		s.RPS = float64(s.Total) / elapsed.Seconds()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hist.TotalCount() > 0 {
		s.Latency = LatencyStats{
			Min:    micros(r.hist.Min()),
			Max:    micros(r.hist.Max()),
			Mean:   micros(int64(r.hist.Mean())),
			StdDev: micros(int64(r.hist.StdDev())),
			P50:    micros(r.hist.ValueAtQuantile(50)),
			P90:    micros(r.hist.ValueAtQuantile(90)),
			P95:    micros(r.hist.ValueAtQuantile(95)),
			P99:    micros(r.hist.ValueAtQuantile(99)),
		}
	}

	for code, n := range r.statuses {
		s.Statuses = append(s.Statuses, StatusCount{Code: code, Count: n})
	}
	sort.Slice(s.Statuses, func(i, j int) bool { return s.Statuses[i].Code < s.Statuses[j].Code })

	for msg, n := range r.errors {
		s.Errors = append(s.Errors, ErrorCount{Message: msg, Count: n})
	}
	sort.Slice(s.Errors, func(i, j int) bool {
		if s.Errors[i].Count != s.Errors[j].Count {
			return s.Errors[i].Count > s.Errors[j].Count
		}
		return s.Errors[i].Message < s.Errors[j].Message
	})

	return s
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
