package service_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	service "github.com/okian/registrar/internal/app"
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/internal/domain/types"
	"github.com/okian/registrar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type fakeBackend struct {
	grades   []grading.GradeRecord
	sections []schedule.ScheduleItem
	err      error
	lastID   string
}

func (f *fakeBackend) FetchGrades(_ context.Context, id string) ([]grading.GradeRecord, error) {
	f.lastID = id
	return f.grades, f.err
}

func (f *fakeBackend) FetchRegisteredSections(_ context.Context, id string) ([]schedule.ScheduleItem, error) {
	f.lastID = id
	return f.sections, f.err
}

func rec(id, grade string, credit float64, year, term string) grading.GradeRecord {
	return grading.GradeRecord{
		SubjectID:   id,
		Credit:      credit,
		LetterGrade: grade,
		Term:        grading.TermKey{AcademicYear: year, Term: term},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report sensible defaults", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldBeGreaterThan, 0)
			So(stats["parseCacheSize"], ShouldEqual, 10_000)
			So(stats["maxBatch"], ShouldEqual, 500)
			So(stats["upstream"], ShouldEqual, false)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithParseCacheSize(10),
			service.WithMaxBatch(2),
			service.WithBackend(&fakeBackend{}),
			service.WithLogger(logger.Named("test")),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 4)
			So(stats["parseCacheSize"], ShouldEqual, 10)
			So(stats["maxBatch"], ShouldEqual, 2)
			So(stats["upstream"], ShouldEqual, true)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		defer svc.Stop()

		Convey("When starting it twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("Then stopping twice is safe", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_CheckConflicts(t *testing.T) {
	Convey("Given a service and a basket", t, func() {
		svc := service.New()
		ctx := context.Background()

		candidates := []schedule.ScheduleItem{
			schedule.NewScheduleItem("CS101-1", "Mon: 09:00-10:30"),
			schedule.NewScheduleItem("MA201-1", "Mon: 10:00-11:00"),
			schedule.NewScheduleItem("PH101-1", "Wed: 09:00-10:00"),
		}
		committed := []schedule.ScheduleItem{
			{Identity: "EN100-1", Text: "Wed 09:30-10:30"},
		}

		Convey("When checking conflicts", func() {
			report := svc.CheckConflicts(ctx, candidates, committed)

			Convey("Then both scopes are reported", func() {
				So(report.Internal, ShouldHaveLength, 1)
				So(report.Internal[0].A, ShouldEqual, "CS101-1")
				So(report.Internal[0].B, ShouldEqual, "MA201-1")
				So(report.AgainstCommitted, ShouldHaveLength, 1)
				So(report.AgainstCommitted[0].A, ShouldEqual, "PH101-1")
				So(report.AgainstCommitted[0].B, ShouldEqual, "EN100-1")
			})

			Convey("Then items without parsed blocks go through the cache", func() {
				So(svc.GetStats()["parseCacheLen"], ShouldEqual, int64(1))
			})
		})

		Convey("When the basket is empty", func() {
			report := svc.CheckConflicts(ctx, nil, nil)

			Convey("Then the report is clean and non-nil", func() {
				So(report.Clean(), ShouldBeTrue)
				So(report.Internal, ShouldNotBeNil)
				So(report.AgainstCommitted, ShouldNotBeNil)
			})
		})
	})
}

func TestService_SummarizeRecords(t *testing.T) {
	Convey("Given unsorted records across two terms", t, func() {
		svc := service.New()
		records := []grading.GradeRecord{
			rec("B1", "B", 3, "2566", "2"),
			rec("A1", "A", 3, "2566", "1"),
			rec("A2", "B+", 2, "2566", "1"),
			rec("B2", "??", 1, "2566", "2"),
		}

		Convey("When summarizing", func() {
			terms := svc.SummarizeRecords(context.Background(), records)

			Convey("Then terms come out in order with running totals", func() {
				So(terms, ShouldHaveLength, 2)
				So(terms[0].Term.String(), ShouldEqual, "2566-1")
				So(terms[0].TermGPA, ShouldEqual, 3.8)
				So(terms[1].Term.String(), ShouldEqual, "2566-2")
				So(terms[1].TermCredits, ShouldEqual, 4)
				So(terms[1].TermGPA, ShouldEqual, 2.25)
				So(terms[1].CumulativeCredits, ShouldEqual, 9)
				So(terms[1].CumulativeGPA, ShouldEqual, 3.11)
			})
		})
	})
}

func TestService_SummarizeBatch(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithMaxBatch(3))

		Convey("When it is not started", func() {
			_, err := svc.SummarizeBatch(ctx, nil)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When it is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("And the batch fits", func() {
				out, err := svc.SummarizeBatch(ctx, []types.StudentRecords{
					{StudentID: "s1", Records: []grading.GradeRecord{rec("X", "A", 3, "2566", "1")}},
					{StudentID: "s2"},
					{StudentID: "s3", Records: []grading.GradeRecord{rec("Y", "C", 2, "2566", "1")}},
				})

				Convey("Then results keep student order", func() {
					So(err, ShouldBeNil)
					So(out, ShouldHaveLength, 3)
					So(out[0].StudentID, ShouldEqual, "s1")
					So(out[0].Terms[0].CumulativeGPA, ShouldEqual, 4.0)
					So(out[1].StudentID, ShouldEqual, "s2")
					So(out[1].Terms, ShouldBeEmpty)
					So(out[2].Terms[0].CumulativeGPA, ShouldEqual, 2.0)
				})
			})

			Convey("And the batch is too large", func() {
				_, err := svc.SummarizeBatch(ctx, make([]types.StudentRecords, 4))
				So(errors.Is(err, service.ErrBatchTooLarge), ShouldBeTrue)
			})
		})

		Convey("When the start context is canceled before a batch arrives", func() {
			startCtx, cancel := context.WithCancel(ctx)
			So(svc.Start(startCtx), ShouldBeNil)
			defer svc.Stop()
			cancel()

			reqCtx, reqCancel := context.WithTimeout(ctx, 2*time.Second)
			defer reqCancel()
			begin := time.Now()
			out, err := svc.SummarizeBatch(reqCtx, []types.StudentRecords{
				{StudentID: "s1", Records: []grading.GradeRecord{rec("X", "B", 3, "2566", "1")}},
			})

			Convey("Then the workers still serve it", func() {
				So(err, ShouldBeNil)
				So(time.Since(begin), ShouldBeLessThan, time.Second)
				So(out, ShouldHaveLength, 1)
				So(out[0].Error, ShouldBeEmpty)
				So(out[0].Terms[0].CumulativeGPA, ShouldEqual, 3.0)
			})
		})
	})
}

func TestService_SummarizeBatchCanceled(t *testing.T) {
	Convey("Given a started service and a large batch", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(4))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		records := make([]grading.GradeRecord, 20_000)
		for i := range records {
			records[i] = rec(fmt.Sprintf("S%05d", i), "B+", 3, fmt.Sprintf("25%02d", 60+(i/2)%8), strconv.Itoa(1+i%2))
		}
		students := make([]types.StudentRecords, 8)
		for i := range students {
			students[i] = types.StudentRecords{StudentID: fmt.Sprintf("s%d", i), Records: records}
		}

		Convey("When the request deadline expires mid-batch", func() {
			var outs [][]types.StudentSummary
			for range 20 {
				reqCtx, cancel := context.WithTimeout(ctx, 200*time.Microsecond)
				out, err := svc.SummarizeBatch(reqCtx, students)
				cancel()
				So(err, ShouldBeNil)
				outs = append(outs, out)
			}

			Convey("Then every result is complete or marked failed", func() {
				for _, out := range outs {
					So(out, ShouldHaveLength, len(students))
					for i, st := range out {
						So(st.StudentID, ShouldEqual, students[i].StudentID)
						if st.Error == "" {
							So(st.Terms, ShouldHaveLength, 16)
						} else {
							So(st.Terms, ShouldBeEmpty)
						}
					}
				}
			})
		})
	})
}

func TestService_StudentOperations(t *testing.T) {
	Convey("Given a service with a backend", t, func() {
		ctx := context.Background()
		backend := &fakeBackend{
			grades: []grading.GradeRecord{rec("X", "B+", 3, "2566", "1")},
			sections: []schedule.ScheduleItem{
				schedule.NewScheduleItem("CS101-1", "Tue: 13:00-15:00"),
			},
		}
		svc := service.New(service.WithBackend(backend))

		Convey("When fetching a transcript", func() {
			terms, err := svc.StudentTranscript(ctx, "s1")

			Convey("Then grades are summarized", func() {
				So(err, ShouldBeNil)
				So(backend.lastID, ShouldEqual, "s1")
				So(terms, ShouldHaveLength, 1)
				So(terms[0].TermGPA, ShouldEqual, 3.5)
			})
		})

		Convey("When checking a basket", func() {
			report, err := svc.StudentBasketCheck(ctx, "s1", []schedule.ScheduleItem{
				schedule.NewScheduleItem("MA201-2", "Tue: 14:00-16:00"),
			})

			Convey("Then committed sections are considered", func() {
				So(err, ShouldBeNil)
				So(report.AgainstCommitted, ShouldHaveLength, 1)
				So(report.Internal, ShouldBeEmpty)
			})
		})

		Convey("When the backend fails", func() {
			backend.err = errors.New("down")
			_, err := svc.StudentTranscript(ctx, "s1")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, backend.err), ShouldBeTrue)
		})

		Convey("When the student id is empty", func() {
			_, err := svc.StudentTranscript(ctx, "")
			So(errors.Is(err, service.ErrEmptyStudentID), ShouldBeTrue)
		})
	})

	Convey("Given a service without a backend", t, func() {
		svc := service.New()
		_, err := svc.StudentBasketCheck(context.Background(), "s1", nil)
		So(errors.Is(err, service.ErrNoUpstream), ShouldBeTrue)
	})
}
