package analysis

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"retrace/internal/canonicalize"
	"retrace/internal/logging"
	"retrace/internal/score"
)

// Request names one (device, file) pair to analyze.
type Request struct {
	DeviceID string
	Dialect  canonicalize.Dialect
}

// Outcome is the per-request result of a batch run. Exactly one of Report and
// Err is set.
type Outcome struct {
	Request Request
	Report  *score.QualityReport
	Err     error
}

// Summary aggregates a batch run. Skipped counts are keyed by error class.
type Summary struct {
	Analyzed int
	Skipped  map[string]int
}

// Failed reports the total number of skipped analyses.
func (s Summary) Failed() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// RunBatch analyzes every request on a bounded worker pool. One request's
// failure never aborts its siblings; the outcome slice matches the input
// order. Workers <= 0 sizes the pool to the available CPUs. Context
// cancellation stops dispatch of further requests but never interrupts a
// comparison already underway.
func (a *Analyzer) RunBatch(ctx context.Context, requests []Request, workers int) ([]Outcome, Summary) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]Outcome, len(requests))
	p := pool.New().WithMaxGoroutines(workers)
	for i, req := range requests {
		if ctx.Err() != nil {
			outcomes[i] = Outcome{Request: req, Err: ctx.Err()}
			continue
		}
		i, req := i, req
		p.Go(func() {
			report, err := a.Analyze(ctx, req.DeviceID, req.Dialect)
			outcomes[i] = Outcome{Request: req, Report: report, Err: err}
		})
	}
	p.Wait()

	summary := Summary{Skipped: make(map[string]int)}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			summary.Skipped[Classify(outcome.Err)]++
			continue
		}
		summary.Analyzed++
	}

	a.logger.Info("batch complete",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("requested", len(requests)),
		logging.Int("analyzed", summary.Analyzed),
		logging.Int("skipped", summary.Failed()),
	)
	return outcomes, summary
}
