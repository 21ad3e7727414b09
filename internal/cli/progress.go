package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/project-cortex/internal/scan"
)

// ScanProgressReporter prints a progress bar for the file-parse phase and
// a one-line summary for every other phase, mirroring the teacher's
// CLIProgressReporter split between a bar-backed phase and log lines for
// the rest.
type ScanProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// NewScanProgressReporter creates a reporter; quiet suppresses all output.
func NewScanProgressReporter(quiet bool) *ScanProgressReporter {
	return &ScanProgressReporter{quiet: quiet}
}

// OnPhaseStart announces a phase beginning, with a progress bar for the
// parse phase where totalFiles is known up front.
func (r *ScanProgressReporter) OnPhaseStart(phase string, totalFiles int) {
	if r.quiet {
		return
	}
	if phase != "parse" || totalFiles <= 0 {
		log.Printf("%s...\n", phase)
		return
	}
	r.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)
}

// OnFileParsed advances the parse-phase bar by one file.
func (r *ScanProgressReporter) OnFileParsed(path string) {
	if r.quiet || r.bar == nil {
		return
	}
	r.bar.Add(1)
}

// OnReport prints the final phase timings, write counts, and warning
// summary once a scan.Report is available.
func (r *ScanProgressReporter) OnReport(report scan.Report) {
	if r.quiet {
		return
	}
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
	fmt.Printf("✓ scan %s complete: %d files, %d symbols, %d edges (%d warnings)\n",
		report.CommitID,
		report.WriteStats.FilesWritten,
		report.WriteStats.SymbolsWritten,
		report.WriteStats.EdgesWritten,
		len(report.Warnings))
	for _, p := range report.Phases {
		fmt.Printf("  %-8s %s\n", p.Name, p.Duration.Round(time.Millisecond))
	}
	if len(report.Warnings) > 0 {
		fmt.Println("warnings:")
		sample := report.Warnings
		if len(sample) > 5 {
			sample = sample[:5]
		}
		for _, w := range sample {
			fmt.Printf("  [%s] %s: %s\n", w.Kind, w.Path, w.Msg)
		}
		if len(report.Warnings) > len(sample) {
			fmt.Printf("  ... and %d more\n", len(report.Warnings)-len(sample))
		}
	}
}
