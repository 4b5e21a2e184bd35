package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"wb-content-manager/internal/pipeline"
	"wb-content-manager/internal/profile"
	"wb-content-manager/internal/runstore"
	"wb-content-manager/internal/share"
	"wb-content-manager/internal/source"
	"wb-content-manager/internal/wb"
)

type runOptions struct {
	urls       string
	localPath  string
	codes      []string
	profile    string
	apiKey     string
	configPath string
	runsDir    string
	noUI       bool
	jsonOut    bool
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	urls := fs.String("urls", "", "comma-separated public share links")
	local := fs.String("local", "", "absolute local source directory or single media file")
	codesPath := fs.String("codes", "", "file with one vendor code per line (- for stdin)")
	profileName := fs.String("profile", "", "profile name (default: selected profile)")
	apiKey := fs.String("api-key", "", "override the profile API key for this run")
	config := fs.String("config", "", "profile store path")
	runsDir := fs.String("runs-dir", "", "runs directory")
	noUI := fs.Bool("no-ui", false, "disable the live dashboard")
	jsonOut := fs.Bool("json", false, "print the run report as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*codesPath) == "" {
		return fmt.Errorf("--codes is required (one vendor code per line, - for stdin)")
	}
	codes, err := readVendorCodes(strings.TrimSpace(*codesPath))
	if err != nil {
		return fmt.Errorf("read vendor codes: %w", err)
	}

	return executeRun(runOptions{
		urls:       strings.TrimSpace(*urls),
		localPath:  strings.TrimSpace(*local),
		codes:      codes,
		profile:    strings.TrimSpace(*profileName),
		apiKey:     strings.TrimSpace(*apiKey),
		configPath: strings.TrimSpace(*config),
		runsDir:    strings.TrimSpace(*runsDir),
		noUI:       *noUI,
		jsonOut:    *jsonOut,
	})
}

func runRetry(args []string) error {
	fs := flag.NewFlagSet("retry", flag.ContinueOnError)
	profileName := fs.String("profile", "", "profile name (default: selected profile)")
	apiKey := fs.String("api-key", "", "override the profile API key for this run")
	config := fs.String("config", "", "profile store path")
	runsDir := fs.String("runs-dir", "", "runs directory")
	noUI := fs.Bool("no-ui", false, "disable the live dashboard")
	jsonOut := fs.Bool("json", false, "print the run report as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveRunsDir(strings.TrimSpace(*runsDir))
	if err != nil {
		return err
	}
	report, err := runstore.LatestReport(dir)
	if err != nil {
		return fmt.Errorf("no previous run to retry: %w", err)
	}
	if len(report.FailedCodes) == 0 {
		fmt.Println("latest run has no failed vendor codes, nothing to retry")
		return nil
	}
	fmt.Printf("retrying %d failed vendor code(s) from run %s\n", len(report.FailedCodes), report.RunID)

	return executeRun(runOptions{
		urls:       strings.Join(report.SourceRoots, ","),
		localPath:  report.SourcePath,
		codes:      report.FailedCodes,
		profile:    strings.TrimSpace(*profileName),
		apiKey:     strings.TrimSpace(*apiKey),
		configPath: strings.TrimSpace(*config),
		runsDir:    strings.TrimSpace(*runsDir),
		noUI:       *noUI,
		jsonOut:    *jsonOut,
	})
}

func executeRun(opts runOptions) error {
	src, err := source.FromInputs(opts.urls, opts.localPath, opts.localPath != "")
	if err != nil {
		return err
	}

	store, err := loadProfileStore(opts.configPath)
	if err != nil {
		return err
	}
	prof := store.Current()
	if opts.profile != "" {
		if err := store.Select(opts.profile); err != nil {
			return err
		}
		prof = store.Current()
	}
	key := firstNonEmpty(opts.apiKey, prof.APIKey)

	state := pipeline.NewRunState()
	api, err := wb.New(key, wb.Options{OnUploaded: state.MarkUploaded, Logf: state.Logf})
	if err != nil {
		return err
	}

	runsDir, err := resolveRunsDir(opts.runsDir)
	if err != nil {
		return err
	}
	runID := runstore.NewRunID()
	startedAt := time.Now()

	lock, err := runstore.AcquireRunLock(runsDir, runID)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	runDir := runstore.ReportDir(runsDir, runID, startedAt)
	if err := runstore.Mkdir(runDir); err != nil {
		return err
	}

	enum, err := source.NewEnumerator(src, source.Options{
		StagingDir: filepath.Join(runDir, "staging"),
		Share:      share.Options{Logf: state.Logf},
		Logf:       state.Logf,
	})
	if err != nil {
		return err
	}
	var links pipeline.LinkResolver
	if sc, ok := enum.(*share.Client); ok {
		links = sc
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		State:      state,
		Source:     src,
		Enumerator: enum,
		Links:      links,
		API:        api,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orch.Run(ctx, opts.codes)
	})
	if !opts.noUI && !opts.jsonOut && stdinIsTTY() {
		g.Go(func() error {
			return runDashboard(ctx, state)
		})
	}
	runErr := g.Wait()

	report := buildReport(runID, startedAt, src, prof.Name, opts.codes, state.Snapshot())
	if err := runstore.SaveReport(runDir, report); err != nil {
		return fmt.Errorf("save run report: %w", err)
	}

	if opts.jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printRunSummary(report)
	}
	return runErr
}

func buildReport(runID string, startedAt time.Time, src source.Source, profileName string, codes []string, snap pipeline.Snapshot) runstore.RunReport {
	report := runstore.RunReport{
		RunID:       runID,
		StartedAt:   startedAt.UTC().Format(time.RFC3339),
		Phase:       snap.Phase,
		Source:      src.Kind.String(),
		SourceRoots: src.Roots,
		SourcePath:  src.Path,
		Profile:     profileName,
		VendorCodes: codes,
		TotalCodes:  snap.TotalCodes,
		Processed:   snap.ProcessedCodes,
		Uploaded:    snap.UploadedProducts,
		FailedCodes: snap.FailedCodes,
		LogTail:     logTail(snap.Log, 50),
	}
	if !snap.FinishedAt.IsZero() {
		report.FinishedAt = snap.FinishedAt.UTC().Format(time.RFC3339)
	}
	if snap.Err != nil {
		report.Error = snap.Err.Error()
	}
	return report
}

func logTail(log []string, n int) []string {
	if len(log) <= n {
		return log
	}
	return log[len(log)-n:]
}

func printRunSummary(report runstore.RunReport) {
	fmt.Printf("run %s %s: %d/%d codes processed, %d product(s) uploaded\n",
		report.RunID, report.Phase, report.Processed, report.TotalCodes, report.Uploaded)
	if report.Error != "" {
		fmt.Printf("error: %s\n", report.Error)
	}
	if len(report.FailedCodes) > 0 {
		fmt.Printf("failed codes (%d): %s\n", len(report.FailedCodes), strings.Join(report.FailedCodes, ", "))
		fmt.Println("rerun them with: wb-content-manager retry")
	}
}

func resolveRunsDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return profile.DefaultRunsDir()
}

func loadProfileStore(flagValue string) (*profile.Store, error) {
	path := flagValue
	if path == "" {
		var err error
		path, err = profile.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return profile.Load(path)
}
