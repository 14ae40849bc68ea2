// Package service implements the batch geocoding pipeline: job intake,
// dedup by normalized address, a fixed worker pool draining the task queue
// through the Cache → RateLimiter → Provider → RetryPolicy chain, and
// ordered reassembly of per-address outcomes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/batch-geocoder/internal/cache"
	"github.com/Houeta/batch-geocoder/internal/geocoding"
	"github.com/Houeta/batch-geocoder/internal/metrics"
	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/Houeta/batch-geocoder/internal/normalizer"
	"github.com/Houeta/batch-geocoder/internal/ratelimit"
	"github.com/Houeta/batch-geocoder/internal/repository"
	"github.com/Houeta/batch-geocoder/internal/retry"
	"github.com/google/uuid"
)

// Job-level errors. Per-address failures never surface here: they are
// embedded in the job's result set.
var (
	// ErrEmptyBatch rejects a submission with no addresses.
	ErrEmptyBatch = errors.New("batch contains no addresses")
	// ErrJobCancelled reports that the job was cancelled before completion.
	// Partial results are discarded; resolved addresses stay in the cache.
	ErrJobCancelled = errors.New("job cancelled before completion")
)

// Options carries the injected collaborators and tuning knobs for a
// BatchService. Cache and Limiter are process-wide singletons shared across
// jobs; Store may be nil to disable persistence.
type Options struct {
	Cache         *cache.Cache
	Limiter       *ratelimit.Limiter
	Provider      geocoding.Provider
	ProviderName  string // label for metrics
	Policy        retry.Policy
	Metrics       *metrics.Metrics
	Store         repository.Interface
	Workers       int
	AddressPrefix string        // optional region prefix prepended to every address
	SuccessTTL    time.Duration // cache TTL for successes and InvalidAddress
	FailureTTL    time.Duration // cache TTL for ExhaustedRetries
}

// BatchService coordinates batch geocoding jobs against one provider.
type BatchService struct {
	log  *slog.Logger
	opts Options
}

// New creates a BatchService. Workers defaults to 1 when unset; oversizing
// the pool past the limiter's rate only adds contention, not throughput.
func New(log *slog.Logger, opts Options) *BatchService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &BatchService{log: log, opts: opts}
}

// task is one unit of provider work: a unique normalized address and every
// batch index it must fan out to. The key is also the text sent to the
// provider, so equivalent inputs produce one identical outbound call.
type task struct {
	key     string // normalized address: dedup key, cache key, provider input
	indexes []int  // batch positions sharing this key
}

// GeocodeBatch runs one job to completion and returns it with every index
// holding a terminal result, in input order. It returns ErrEmptyBatch before
// dispatch on empty input and ErrJobCancelled when ctx is cancelled
// mid-flight; in both cases the job is Failed and no results are exposed.
func (s *BatchService) GeocodeBatch(ctx context.Context, addresses []string) (*models.Job, error) {
	job := &models.Job{ID: uuid.NewString(), Status: models.JobPending}

	if len(addresses) == 0 {
		job.Status = models.JobFailed
		s.opts.Metrics.JobsTotal.WithLabelValues(string(models.JobFailed)).Inc()
		return nil, ErrEmptyBatch
	}

	job.Addresses = make([]models.Address, len(addresses))
	job.Results = make([]models.GeocodeResult, len(addresses))

	// Group indices by normalized key: duplicates within a job share one
	// provider call, and its result fans out to every position.
	byKey := make(map[string]*task)
	order := make([]*task, 0, len(addresses))
	for i, raw := range addresses {
		job.Addresses[i] = models.Address{Raw: raw, Index: i}
		key := normalizer.Normalize(s.opts.AddressPrefix + raw)
		t, ok := byKey[key]
		if !ok {
			t = &task{key: key}
			byKey[key] = t
			order = append(order, t)
		}
		t.indexes = append(t.indexes, i)
	}

	job.Status = models.JobRunning
	s.log.InfoContext(ctx, "Starting worker pool for job",
		"job", job.ID, "addresses", len(addresses), "unique", len(order), "num_workers", s.opts.Workers)

	tasks := make(chan *task, len(order))
	done := make(chan int, len(order))

	var wgr sync.WaitGroup
	for i := 1; i <= s.opts.Workers; i++ {
		wgr.Add(1)
		go s.worker(ctx, i, &wgr, tasks, job, done)
	}

	for _, t := range order {
		tasks <- t
	}
	close(tasks)

	go func() {
		wgr.Wait()
		close(done)
	}()

	remaining := len(addresses)
	for n := range done {
		remaining -= n
	}

	if err := ctx.Err(); err != nil {
		job.Status = models.JobFailed
		s.opts.Metrics.JobsTotal.WithLabelValues(string(models.JobFailed)).Inc()
		s.log.WarnContext(ctx, "Job cancelled", "job", job.ID, "unresolved", remaining)
		return nil, fmt.Errorf("%w: %w", ErrJobCancelled, err)
	}

	// Every worker signalled completion for every index it owned.
	job.Status = models.JobCompleted
	s.opts.Metrics.JobsTotal.WithLabelValues(string(models.JobCompleted)).Inc()
	s.log.InfoContext(ctx, "Job completed", "job", job.ID)

	return job, nil
}

// worker drains the task queue. Each terminal outcome is written into the
// job's index slots before the completion signal is sent, so the coordinator
// never observes a counted-but-unwritten result.
func (s *BatchService) worker(
	ctx context.Context,
	idx int,
	wgr *sync.WaitGroup,
	tasks <-chan *task,
	job *models.Job,
	done chan<- int,
) {
	defer wgr.Done()
	for t := range tasks {
		s.opts.Metrics.ActiveWorkers.Inc()
		s.log.DebugContext(ctx, "Processing task", "worker", idx, "key", t.key, "fanout", len(t.indexes))

		res := s.resolve(ctx, t)
		for _, i := range t.indexes {
			job.Results[i] = res
		}

		s.opts.Metrics.ActiveWorkers.Dec()
		done <- len(t.indexes)
	}
}

// resolve executes the per-task chain: cache lookup, then rate-limited
// provider attempts under the retry policy until a terminal outcome.
func (s *BatchService) resolve(ctx context.Context, t *task) models.GeocodeResult {
	if res, ok := s.opts.Cache.Get(t.key); ok {
		s.opts.Metrics.CacheHits.Inc()
		s.opts.Metrics.TasksProcessed.WithLabelValues("cached").Inc()
		return res
	}
	s.opts.Metrics.CacheMisses.Inc()

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return s.cancelled()
		}

		loc, kind, detail := s.attempt(ctx, t)
		if loc != nil {
			s.opts.Metrics.TasksProcessed.WithLabelValues("success").Inc()
			return s.commit(ctx, t.key, models.Success(loc.Coordinates, loc.Precision), s.opts.SuccessTTL, true)
		}

		if kind == models.FailureCancelled {
			return s.cancelled()
		}

		if kind == models.FailureInvalidAddress {
			s.opts.Metrics.TasksProcessed.WithLabelValues("failure").Inc()
			return s.commit(ctx, t.key, models.Failed(kind, detail), s.opts.SuccessTTL, true)
		}

		decision, redo := s.opts.Policy.Decide(kind, attempt)
		if !redo {
			s.opts.Metrics.TasksProcessed.WithLabelValues("failure").Inc()
			res := models.Failed(models.FailureExhaustedRetries,
				fmt.Sprintf("gave up after %d attempts, last failure %s: %s", attempt, kind, detail))
			return s.commit(ctx, t.key, res, s.opts.FailureTTL, false)
		}

		s.opts.Metrics.Retries.Inc()
		s.log.DebugContext(ctx, "Retrying task",
			"key", t.key, "attempt", attempt, "kind", string(kind), "after", decision.RetryAfter)

		timer := time.NewTimer(decision.RetryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return s.cancelled()
		case <-timer.C:
		}
	}
}

// attempt performs one limiter acquire plus provider call. It returns the
// resolved location, or a nil location with the failure kind and detail. A
// limiter refusal counts as a retryable RateLimited failure.
func (s *BatchService) attempt(ctx context.Context, t *task) (*geocoding.Location, models.FailureKind, string) {
	if err := s.opts.Limiter.Acquire(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, models.FailureCancelled, err.Error()
		}
		return nil, models.FailureRateLimited, err.Error()
	}

	start := time.Now()
	loc, err := s.opts.Provider.Resolve(ctx, t.key)
	s.opts.Metrics.RequestSeconds.WithLabelValues(s.opts.ProviderName).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return nil, models.FailureCancelled, err.Error()
		}
		s.opts.Metrics.APIErrors.Inc()
		s.log.DebugContext(ctx, "Provider call failed", "key", t.key, "error", err)
		return nil, geocoding.KindOf(err), err.Error()
	}

	return loc, "", ""
}

// commit writes a terminal outcome through PutIfAbsent and returns the
// canonical result: when a concurrent duplicate won the race, its value is
// kept and this worker's redundant result is discarded. Freshly won
// permanent outcomes are persisted when a store is configured.
func (s *BatchService) commit(
	ctx context.Context,
	key string,
	res models.GeocodeResult,
	ttl time.Duration,
	persist bool,
) models.GeocodeResult {
	if s.opts.Cache.PutIfAbsent(key, res, ttl) {
		if persist && s.opts.Store != nil {
			// Persistence must survive a client disconnect mid-write.
			if err := s.opts.Store.SaveResult(context.WithoutCancel(ctx), key, res); err != nil {
				s.log.ErrorContext(ctx, "Failed to persist geocode result", "key", key, "error", err)
			}
		}
		return res
	}

	if canonical, ok := s.opts.Cache.Get(key); ok {
		return canonical
	}
	return res
}

// cancelled produces the terminal outcome for tasks overtaken by job
// cancellation. Never cached: a later job should resolve the address.
func (s *BatchService) cancelled() models.GeocodeResult {
	s.opts.Metrics.TasksProcessed.WithLabelValues("cancelled").Inc()
	return models.Failed(models.FailureCancelled, "job cancelled before this address was resolved")
}
