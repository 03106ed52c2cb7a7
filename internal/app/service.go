// Package service provides the registrar service that implements the
// dependencies required by the HTTP API and the offline checker.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/registrar/internal/adapters/cache"
	workerpool "github.com/okian/registrar/internal/adapters/worker"
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/internal/domain/types"
	"github.com/okian/registrar/pkg/logger"
	"github.com/okian/registrar/pkg/metrics"
)

// Sentinel errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")
	ErrNoUpstream     = errors.New("upstream backend not configured")
	ErrEmptyStudentID = errors.New("student id is required")
	ErrUpstream       = errors.New("upstream request failed")
)

// Backend is the read side of the registration backend.
type Backend interface {
	FetchGrades(ctx context.Context, studentID string) ([]grading.GradeRecord, error)
	FetchRegisteredSections(ctx context.Context, studentID string) ([]schedule.ScheduleItem, error)
}

// Service implements the API dependencies for the registrar.
type Service struct {
	mu sync.RWMutex

	// Core components
	parseCache cache.BlockCache
	workerPool *workerpool.Pool
	backend    Backend

	// Configuration
	workerCount    int
	parseCacheSize int
	maxBatch       int

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithParseCacheSize bounds the schedule parse cache. 0 disables the bound.
func WithParseCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.parseCacheSize = size
		}
	}
}

// WithMaxBatch sets the largest number of students accepted per batch.
func WithMaxBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithBackend sets the upstream backend used by the per-student operations.
func WithBackend(b Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 2,
		parseCacheSize: 10_000,
		maxBatch:       500,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.parseCache = cache.NewInMemoryCache(cache.WithMaxSize(s.parseCacheSize))
	return s
}

// Start launches the batch worker pool. The pool keeps running after ctx is
// canceled and only stops in Stop, so in-flight batches can drain.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting registrar service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "registrar service started",
		logger.Int("workers", s.workerCount),
		logger.Int("parseCacheSize", s.parseCacheSize),
		logger.Int("maxBatch", s.maxBatch),
		logger.Bool("upstream", s.backend != nil),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping registrar service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.started = false
	s.logger.Info(ctx, "registrar service stopped")
}

// ParseSchedule parses free-form schedule text, memoizing the result.
func (s *Service) ParseSchedule(ctx context.Context, text string) []schedule.TimeBlock {
	return cache.Parse(ctx, s.parseCache, text)
}

// CheckConflicts reports clashes among candidates and between candidates
// and committed sections. Items without explicit blocks are parsed through
// the cache.
func (s *Service) CheckConflicts(ctx context.Context, candidates, committed []schedule.ScheduleItem) types.ConflictReport {
	candidates = s.withBlocks(ctx, candidates)
	committed = s.withBlocks(ctx, committed)

	report := types.ConflictReport{
		Internal:         schedule.FindConflicts(candidates),
		AgainstCommitted: schedule.FindConflictsAgainst(candidates, committed),
	}
	metrics.RecordConflictCheck("internal", len(report.Internal))
	metrics.RecordConflictCheck("committed", len(report.AgainstCommitted))

	s.logger.Debug(ctx, "conflict check",
		logger.Int("candidates", len(candidates)),
		logger.Int("committed", len(committed)),
		logger.Int("internal", len(report.Internal)),
		logger.Int("againstCommitted", len(report.AgainstCommitted)),
	)
	return report
}

// withBlocks returns a copy of items whose nil Blocks are filled from the
// parse cache.
func (s *Service) withBlocks(ctx context.Context, items []schedule.ScheduleItem) []schedule.ScheduleItem {
	out := make([]schedule.ScheduleItem, len(items))
	for i, it := range items {
		if it.Blocks == nil {
			it.Blocks = s.ParseSchedule(ctx, it.Text)
		}
		out[i] = it
	}
	return out
}

// SummarizeRecords groups records by term in chronological order and
// returns the running GPA summary.
func (s *Service) SummarizeRecords(ctx context.Context, records []grading.GradeRecord) []grading.TermSummary {
	unknown := 0
	for _, r := range records {
		if !grading.KnownGrade(r.LetterGrade) {
			unknown++
		}
	}
	if unknown > 0 {
		metrics.RecordUnknownGrades(unknown)
		s.logger.Debug(ctx, "unknown letter grades counted as zero", logger.Int("records", unknown))
	}

	summaries := grading.Summarize(grading.GroupByTerm(records))
	metrics.RecordSummary(len(summaries))
	return summaries
}

// SummarizeBatch summarizes every student on the worker pool. Results keep
// the order of students.
func (s *Service) SummarizeBatch(ctx context.Context, students []types.StudentRecords) ([]types.StudentSummary, error) {
	s.mu.RLock()
	pool, started, maxBatch := s.workerPool, s.started, s.maxBatch
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	if len(students) > maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(students), maxBatch)
	}

	batchID := uuid.NewString()
	terms := make([][]grading.TermSummary, len(students))
	fns := make([]workerpool.JobFunc, len(students))
	for i, st := range students {
		// Jobs use the request context so a late start is skipped.
		fns[i] = func(context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			terms[i] = s.SummarizeRecords(ctx, st.Records)
			return nil
		}
	}

	// RunAll returns once no job is running, so terms is safe to read.
	errs := pool.RunAll(ctx, "batch-"+batchID, fns)
	out := make([]types.StudentSummary, len(students))
	failed := 0
	for i, err := range errs {
		if errors.Is(err, workerpool.ErrPoolStopped) {
			return nil, fmt.Errorf("%w: batch %s: %w", ErrNotStarted, batchID, err)
		}
		if err == nil {
			out[i] = types.StudentSummary{StudentID: students[i].StudentID, Terms: terms[i]}
			continue
		}
		failed++
		out[i] = types.StudentSummary{
			StudentID: students[i].StudentID,
			Terms:     []grading.TermSummary{},
			Error:     err.Error(),
		}
	}
	s.logger.Info(ctx, "batch summarized",
		logger.String("batchID", batchID),
		logger.Int("students", len(students)),
		logger.Int("failed", failed),
	)
	return out, nil
}

// StudentTranscript fetches a student's grades upstream and summarizes them.
func (s *Service) StudentTranscript(ctx context.Context, studentID string) ([]grading.TermSummary, error) {
	if studentID == "" {
		return nil, ErrEmptyStudentID
	}
	if s.backend == nil {
		return nil, ErrNoUpstream
	}
	records, err := s.backend.FetchGrades(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch grades for %s: %w", ErrUpstream, studentID, err)
	}
	return s.SummarizeRecords(ctx, records), nil
}

// StudentBasketCheck checks candidates against each other and against the
// sections the student is already registered in.
func (s *Service) StudentBasketCheck(ctx context.Context, studentID string, candidates []schedule.ScheduleItem) (types.ConflictReport, error) {
	if studentID == "" {
		return types.ConflictReport{}, ErrEmptyStudentID
	}
	if s.backend == nil {
		return types.ConflictReport{}, ErrNoUpstream
	}
	committed, err := s.backend.FetchRegisteredSections(ctx, studentID)
	if err != nil {
		return types.ConflictReport{}, fmt.Errorf("%w: fetch registrations for %s: %w", ErrUpstream, studentID, err)
	}
	return s.CheckConflicts(ctx, candidates, committed), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"parseCacheSize": s.parseCacheSize,
		"maxBatch":       s.maxBatch,
		"upstream":       s.backend != nil,
		"parseCacheLen":  s.parseCache.Size(),
	}
	if s.started {
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
