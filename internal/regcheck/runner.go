// Package regcheck checks a registration basket and a transcript from local
// JSON files, without a running server or backend.
package regcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/okian/registrar/internal/adapters/upstream"
	"github.com/okian/registrar/internal/domain/grading"
	"github.com/okian/registrar/internal/domain/schedule"
	"github.com/okian/registrar/internal/domain/types"
	"github.com/okian/registrar/pkg/logger"
)

// Run reads the configured files, prints the conflict report and GPA table
// to out, and returns ErrConflicts when the basket cannot be registered.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.Get().Named("regcheck")

	var report types.ConflictReport
	if cfg.BasketFile != "" {
		basket, err := readSections(cfg.BasketFile)
		if err != nil {
			return err
		}
		committed := []schedule.ScheduleItem{}
		if cfg.CommittedFile != "" {
			if committed, err = readSections(cfg.CommittedFile); err != nil {
				return err
			}
		}
		if cfg.Verbose {
			logBlocks(ctx, log, "basket", basket)
			logBlocks(ctx, log, "committed", committed)
		}
		report = types.ConflictReport{
			Internal:         schedule.FindConflicts(basket),
			AgainstCommitted: schedule.FindConflictsAgainst(basket, committed),
		}
		log.Info(ctx, "conflict check done",
			logger.Int("candidates", len(basket)),
			logger.Int("committed", len(committed)),
			logger.Int("conflicts", report.Total()))
		if err := printConflicts(out, report); err != nil {
			return err
		}
	}

	if cfg.GradesFile != "" {
		raws, err := readRecords(cfg.GradesFile)
		if err != nil {
			return err
		}
		records := upstream.NormalizeGradeRecords(raws)
		summaries := grading.Summarize(grading.GroupByTerm(records))
		log.Info(ctx, "transcript summarized",
			logger.Int("records", len(records)),
			logger.Int("terms", len(summaries)))
		if err := printSummaries(out, summaries); err != nil {
			return err
		}
	}

	if !report.Clean() {
		return fmt.Errorf("%w: %d pair(s)", ErrConflicts, report.Total())
	}
	return nil
}

func readRecords(path string) ([]map[string]any, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raws, err := upstream.DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raws, nil
}

func readSections(path string) ([]schedule.ScheduleItem, error) {
	raws, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	return upstream.NormalizeSections(raws), nil
}

func logBlocks(ctx context.Context, log logger.Logger, set string, items []schedule.ScheduleItem) {
	for _, it := range items {
		blocks := it.TimeBlocks()
		if len(blocks) == 0 {
			log.Warn(ctx, "no time blocks parsed",
				logger.String("set", set),
				logger.String("identity", it.Identity),
				logger.String("schedule", it.Text))
			continue
		}
		for _, b := range blocks {
			log.Debug(ctx, "block",
				logger.String("set", set),
				logger.String("identity", it.Identity),
				logger.String("block", b.String()))
		}
	}
}

func printConflicts(out io.Writer, report types.ConflictReport) error {
	if report.Clean() {
		_, err := fmt.Fprintln(out, "No schedule conflicts.")
		return err
	}
	write := func(title string, pairs []schedule.ConflictPair) error {
		if len(pairs) == 0 {
			return nil
		}
		if _, err := fmt.Fprintf(out, "%s:\n", title); err != nil {
			return err
		}
		for _, p := range pairs {
			for _, ov := range p.Overlaps {
				if _, err := fmt.Fprintf(out, "  %s [%s] x %s [%s]\n", p.A, ov.A, p.B, ov.B); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := write("Conflicts within basket", report.Internal); err != nil {
		return err
	}
	return write("Conflicts with registered sections", report.AgainstCommitted)
}

func printSummaries(out io.Writer, summaries []grading.TermSummary) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tCREDITS\tGPA\tCUM CREDITS\tGPAX")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%g\t%.2f\t%g\t%.2f\n",
			s.Term, s.TermCredits, s.TermGPA, s.CumulativeCredits, s.CumulativeGPA)
	}
	return tw.Flush()
}
