package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/registrar/internal/config"
	"github.com/okian/registrar/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When loading configuration from the environment", func() {
			_ = os.Setenv("REGISTRAR_ADDR", ":8080")
			_ = os.Setenv("REGISTRAR_WORKER_COUNT", "4")
			_ = os.Setenv("REGISTRAR_LOG_FORMAT", "json")
			defer func() {
				_ = os.Unsetenv("REGISTRAR_ADDR")
				_ = os.Unsetenv("REGISTRAR_WORKER_COUNT")
				_ = os.Unsetenv("REGISTRAR_LOG_FORMAT")
			}()

			cfg, err := config.Load(context.Background())

			convey.Convey("Then the values are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(configureLogging(context.Background(), cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"

			convey.Convey("Then logging setup fails", func() {
				convey.So(configureLogging(context.Background(), cfg), convey.ShouldNotBeNil)
				convey.So(logger.Init(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log level is invalid", func() {
			cfg := config.New()
			cfg.LogLevel = "loud"

			convey.Convey("Then it falls back without failing", func() {
				convey.So(configureLogging(context.Background(), cfg), convey.ShouldBeNil)
			})
		})
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given configuration", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 3
		cfg.MaxBatchStudents = 7

		convey.Convey("When no upstream is configured", func() {
			svc := newService(cfg, logger.Get())

			convey.Convey("Then the service has no backend", func() {
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 3)
				convey.So(stats["maxBatch"], convey.ShouldEqual, 7)
				convey.So(stats["upstream"], convey.ShouldEqual, false)
			})
		})

		convey.Convey("When an upstream is configured", func() {
			cfg.UpstreamBaseURL = "http://backend.local"
			svc := newService(cfg, logger.Get())

			convey.Convey("Then the backend is attached", func() {
				convey.So(svc.GetStats()["upstream"], convey.ShouldEqual, true)
			})
		})
	})
}

func TestBuildMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx := context.Background()
		svc := newService(config.New(), logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := buildMux(ctx, svc)

		convey.Convey("Then docs, metrics and business routes respond", func() {
			for _, path := range []string{"/", "/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/grades/batch",
				strings.NewReader(`{"students":[{"student_id":"s1","records":[{"credit":3,"grade":"A","academic_year":"2566","term":"1"}]}]}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"cumulative_gpa":4`)
		})

		convey.Convey("Then student routes report a missing upstream", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/s1/transcript", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop stops with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updater did not stop")
			}
		})
	})
}
