package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/infrastructure/config"
	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/templates"
)

const DATE_FLAG_LAYOUT = "2006-01-02"

// Exit codes
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
	exitFailure = 3
)

type output struct {
	Summary     *entity.FlightSummary      `json:"summary"`
	Missing     *entity.MissingNumbers     `json:"missing"`
	Diagnostics []hbpr.Diagnostic          `json:"diagnostics"`
	Results     []*entity.ValidationResult `json:"results"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hbprctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: hbprctl [flags] [dump-file]")
		fmt.Fprintln(stderr, "Validates an HBPR dump offline. Reads stdin when no file is given.")
		fs.PrintDefaults()
	}

	asJSON := fs.Bool("json", false, "print results as JSON instead of the text report")
	debug := fs.Bool("debug", false, "log parsing details to stderr")
	workers := fs.Int("workers", 0, "concurrent validation batches (default WORKER_COUNT)")
	batchSize := fs.Int("batch", 0, "records per batch (default BATCH_SIZE)")
	date := fs.String("date", "", "validation date as YYYY-MM-DD (default today)")
	strict := fs.Bool("strict", false, "exit with status 1 when any record is invalid")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	var log logger.Logger = logger.NewNop()
	if *debug {
		dev := logger.NewDevelopment()
		defer dev.Sync()
		log = dev
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitFailure
	}
	if *workers <= 0 {
		*workers = cfg.WorkerCount
	}
	if *batchSize <= 0 {
		*batchSize = cfg.BatchSize
	}

	now := time.Now()
	if *date != "" {
		now, err = time.Parse(DATE_FLAG_LAYOUT, *date)
		if err != nil {
			fmt.Fprintf(stderr, "invalid -date %q: %v\n", *date, err)
			return exitUsage
		}
	}

	content, err := readDump(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read dump: %v\n", err)
		return exitFailure
	}
	if hbpr.IsCorrectionCommand(content) {
		content, err = hbpr.TranslateCorrection(content)
		if err != nil {
			fmt.Fprintf(stderr, "correction command: %v\n", err)
			return exitFailure
		}
	}

	seg := hbpr.NewSegmenter(log).Segment(content)
	if len(seg.Blocks) == 0 && len(seg.Placeholders) == 0 {
		fmt.Fprintln(stderr, "no HBPR records found")
		return exitFailure
	}

	validator := hbpr.NewValidator(cfg.Rules(), log, hbpr.WithClock(func() time.Time { return now }))
	batch := usecase.NewBatchValidator(validator, *workers, *batchSize, nil, log)

	results, err := batch.ValidateAll(context.Background(), seg.Blocks)
	if err != nil {
		fmt.Fprintf(stderr, "validate: %v\n", err)
		return exitFailure
	}

	flightID := seg.Flight.ID()
	out := output{
		Missing:     entity.NewMissingNumbers(flightID, seg.Observed(), now),
		Diagnostics: seg.Diagnostics,
		Results:     make([]*entity.ValidationResult, 0, len(results)),
	}
	for _, res := range results {
		out.Results = append(out.Results, entity.NewValidationResult(flightID, res, now))
	}
	sort.Slice(out.Results, func(i, j int) bool {
		return out.Results[i].HbnbNumber < out.Results[j].HbnbNumber
	})
	out.Summary = entity.NewFlightSummary(flightID, len(seg.Blocks), len(seg.Placeholders), out.Results, out.Missing, now)

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return exitFailure
		}
	} else {
		for _, d := range seg.Diagnostics {
			fmt.Fprintln(stderr, d.String())
		}
		fmt.Fprint(stdout, templates.RenderViolationReport(out.Summary, out.Results, out.Missing.Numbers))
	}

	if *strict && out.Summary.Stats.Invalid > 0 {
		return exitInvalid
	}
	return exitOK
}

func readDump(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
