package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/okian/registrar/internal/regcheck"
	"github.com/okian/registrar/pkg/logger"
)

const (
	defaultRunTimeout = time.Minute
	exitConflicts     = 2
)

func main() {
	var (
		basket    = flag.String("basket", "", "JSON file with candidate sections")
		committed = flag.String("committed", "", "JSON file with already registered sections")
		grades    = flag.String("grades", "", "JSON file with grade records")
		verbose   = flag.Bool("verbose", false, "Log every parsed time block")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		regcheck.ShowHelp(os.Stdout)
		return
	}

	if err := logger.InitWithWriter(os.Stderr, "text"); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	} else {
		_ = logger.SetLevelString("warn")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &regcheck.Config{
		BasketFile:    *basket,
		CommittedFile: *committed,
		GradesFile:    *grades,
		Verbose:       *verbose,
	}
	if err := regcheck.Run(ctx, cfg, os.Stdout); err != nil {
		if errors.Is(err, regcheck.ErrConflicts) {
			cancel()
			os.Exit(exitConflicts)
		}
		os.Stderr.WriteString("regcheck: " + err.Error() + "\n")
		if errors.Is(err, regcheck.ErrNoInput) {
			regcheck.ShowHelp(os.Stderr)
		}
		cancel()
		os.Exit(1)
	}
}
