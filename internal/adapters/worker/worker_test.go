package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/registrar/internal/adapters/worker"
	"github.com/okian/registrar/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new worker pool", t, func() {
		ctx := context.Background()

		convey.Convey("When creating a pool with default count", func() {
			pool := worker.NewPool(0)

			convey.Convey("Then it should have at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When running a batch of jobs", func() {
			pool := worker.NewPool(3, worker.WithLogger(logger.Named("test")))
			pool.Start(ctx)
			defer func() { _ = pool.Shutdown(ctx) }()

			var ran atomic.Int32
			fns := make([]worker.JobFunc, 10)
			for i := range fns {
				fns[i] = func(context.Context) error {
					ran.Add(1)
					return nil
				}
			}
			errs := pool.RunAll(ctx, "sum", fns)

			convey.Convey("Then every job runs and succeeds", func() {
				convey.So(ran.Load(), convey.ShouldEqual, 10)
				convey.So(errs, convey.ShouldHaveLength, 10)
				for _, err := range errs {
					convey.So(err, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When jobs fail or panic", func() {
			pool := worker.NewPool(2)
			pool.Start(ctx)
			defer func() { _ = pool.Shutdown(ctx) }()

			boom := errors.New("boom")
			errs := pool.RunAll(ctx, "mixed", []worker.JobFunc{
				func(context.Context) error { return nil },
				func(context.Context) error { return boom },
				func(context.Context) error { panic("bad record") },
			})

			convey.Convey("Then errors stay aligned with their jobs", func() {
				convey.So(errs[0], convey.ShouldBeNil)
				convey.So(errors.Is(errs[1], boom), convey.ShouldBeTrue)
				convey.So(errors.Is(errs[2], worker.ErrJobPanicked), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When submitting after shutdown", func() {
			pool := worker.NewPool(1)
			pool.Start(ctx)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			_, err := pool.Submit(ctx, "late", func(context.Context) error { return nil })

			convey.Convey("Then the pool refuses the job", func() {
				convey.So(errors.Is(err, worker.ErrPoolStopped), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the caller context is canceled while all workers are busy", func() {
			pool := worker.NewPool(1)
			pool.Start(ctx)
			defer func() { _ = pool.Shutdown(ctx) }()

			release := make(chan struct{})
			busy, err := pool.Submit(ctx, "busy", func(context.Context) error {
				<-release
				return nil
			})
			convey.So(err, convey.ShouldBeNil)

			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err = pool.Submit(cctx, "blocked", func(context.Context) error { return nil })
			close(release)

			convey.Convey("Then Submit returns the context error", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(<-busy, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the caller context expires while a batch is running", func() {
			pool := worker.NewPool(2)
			pool.Start(ctx)
			defer func() { _ = pool.Shutdown(ctx) }()

			var inFlight, finished atomic.Int32
			fns := make([]worker.JobFunc, 6)
			for i := range fns {
				fns[i] = func(context.Context) error {
					inFlight.Add(1)
					time.Sleep(30 * time.Millisecond)
					inFlight.Add(-1)
					finished.Add(1)
					return nil
				}
			}

			cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			errs := pool.RunAll(cctx, "slow", fns)

			convey.Convey("Then RunAll returns only after accepted jobs finish", func() {
				convey.So(inFlight.Load(), convey.ShouldEqual, 0)
				convey.So(finished.Load(), convey.ShouldEqual, 2)
				convey.So(errs[0], convey.ShouldBeNil)
				convey.So(errs[1], convey.ShouldBeNil)
				for _, err := range errs[2:] {
					convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When the start context is canceled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			pool := worker.NewPool(2)
			pool.Start(runCtx)
			defer func() { _ = pool.Shutdown(ctx) }()
			cancel()

			exited := false
			select {
			case <-pool.Done():
				exited = true
			case <-time.After(2 * time.Second):
			}

			subCtx, subCancel := context.WithTimeout(ctx, 2*time.Second)
			defer subCancel()
			begin := time.Now()
			_, err := pool.Submit(subCtx, "late", func(context.Context) error { return nil })
			elapsed := time.Since(begin)

			convey.Convey("Then Submit fails fast instead of waiting for a worker", func() {
				convey.So(exited, convey.ShouldBeTrue)
				convey.So(errors.Is(err, worker.ErrPoolStopped), convey.ShouldBeTrue)
				convey.So(elapsed, convey.ShouldBeLessThan, time.Second)
			})
		})
	})
}
