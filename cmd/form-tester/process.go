package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/selvaggiesteban/form-tester/internal/classify"
	"github.com/selvaggiesteban/form-tester/internal/config"
	"github.com/selvaggiesteban/form-tester/internal/crawler"
	"github.com/selvaggiesteban/form-tester/internal/database"
	"github.com/selvaggiesteban/form-tester/internal/detect"
	"github.com/selvaggiesteban/form-tester/internal/log"
	"github.com/selvaggiesteban/form-tester/internal/mailer"
	"github.com/selvaggiesteban/form-tester/internal/model"
	"github.com/selvaggiesteban/form-tester/internal/pipeline"
	"github.com/selvaggiesteban/form-tester/internal/report"
	"github.com/selvaggiesteban/form-tester/internal/submit"
	"github.com/selvaggiesteban/form-tester/internal/tasks"
	"github.com/selvaggiesteban/form-tester/internal/validate"
	"github.com/spf13/cobra"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [domain]",
		Short: "Discover and test contact forms on the target domains",
		Long: `Process crawls each target domain looking for contact forms, submits
them through a headless browser with test data, and validates whether
the submission went through.

For each domain it:
- Crawls predefined contact paths plus a bounded set of discovered links
- Classifies form fields (name, email, subject, message, phone, company)
- Skips forms protected by reCAPTCHA/hCAPTCHA or carrying a honeypot
- Submits the remaining forms and captures before/after screenshots
- Falls back to direct email when no form submission succeeded

Examples:
  # Process a single domain
  form-tester process example.com

  # Process all domains from a CSV file
  form-tester process --domains domains.csv

  # Five domains at a time, with a Markdown summary
  form-tester process --domains domains.csv --batch 5 --markdown report.md

  # Start the run at a scheduled time
  form-tester process --domains domains.csv --schedule 02:30

Configuration file (.form-tester) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      maxPages: 25
    fragile.example.org:
      skipSubmit: true
  smtp:
    host: smtp.example.com
    fromEmail: mailer@example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProcessCmd,
	}

	// Target selection flags
	cmd.Flags().StringP("domains", "i", "domains.csv",
		"CSV file listing target domains (domain[,contact-email] per row)")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of link-discovered pages to crawl per domain")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum interval between two requests to the same host")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Attempts per request before giving up on a page")
	cmd.Flags().Bool("robots", true,
		"Respect each host's robots.txt")

	// Batch processing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of domains processed concurrently")
	cmd.Flags().String("schedule", "",
		"Wait until this 24h time (HH:MM) before starting the run")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .form-tester in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", "results.csv",
		"CSV file the per-action result log is written to")
	cmd.Flags().StringP("markdown", "m", "",
		"Additionally write a Markdown run summary to this path")
	cmd.Flags().StringP("json", "j", "",
		"Additionally write the full run summary as JSON to this path")
	cmd.Flags().String("evidence-dir", "evidence",
		"Directory for before/after submission screenshots")
	cmd.Flags().String("db-dir", "",
		"Directory for the results database (default: XDG data directory)")

	return cmd
}

// runProcessCmd executes the process command.
func runProcessCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Environment variables override file-based SMTP settings so
	// credentials can stay out of config files.
	cfg.ApplySMTPEnv()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential redaction
	verbose := getVerboseFlag(cmd)
	cfg.Verbose = verbose
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runProcess(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	if len(args) > 0 {
		cfg.Domain = args[0]
	}

	cfg.DomainsFile, err = cmd.Flags().GetString("domains")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.CheckRobots, err = cmd.Flags().GetBool("robots")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.Schedule, err = cmd.Flags().GetString("schedule")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SMTP = cfg.SiteConfigs.SMTP
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownFile, err = cmd.Flags().GetString("markdown")
	if err != nil {
		return nil, err
	}

	cfg.JSONFile, err = cmd.Flags().GetString("json")
	if err != nil {
		return nil, err
	}

	cfg.EvidenceDir, err = cmd.Flags().GetString("evidence-dir")
	if err != nil {
		return nil, err
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runProcess executes the run: load targets, process them through the
// pipeline, and write the reports.
func runProcess(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := waitForSchedule(ctx, cfg.Schedule, logger); err != nil {
		return err
	}

	domainTasks, err := loadTasks(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"domains", len(domainTasks),
		"batchSize", cfg.BatchSize,
		"smtpConfigured", cfg.SMTP.Configured(),
	)

	// Results and the suppression list are always persisted.
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	// Shared collaborators. The extractor and validator are stateless;
	// the submitter owns the browser allocator and must be closed.
	extractor := crawler.NewExtractor(classify.NewDefault(), detect.New())
	validator := validate.New()
	sender := mailer.New(cfg.SMTP)

	submitter := submit.New(
		submit.WithEvidenceDir(cfg.EvidenceDir),
		submit.WithUserAgent(cfg.UserAgent),
		submit.WithLogger(logger),
	)
	defer submitter.Close()

	httpClient := &http.Client{Timeout: cfg.Timeout}

	factory := func(task *model.DomainTask) *pipeline.Pipeline {
		return buildPipeline(cfg, task, httpClient, extractor, validator, submitter, sender, db, logger)
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	fmt.Printf("Processing %d domain(s) (concurrency: %d)...\n\n", len(domainTasks), cfg.BatchSize)

	reports, batchErr := bp.ProcessBatch(ctx, domainTasks)

	// Persist whatever completed, even on cancellation.
	for _, domainReport := range reports {
		if domainReport == nil {
			continue
		}
		if err := db.InsertReport(ctx, domainReport); err != nil {
			logger.Error("failed to save report",
				"domain", domainReport.Task.Domain,
				"error", err,
			)
		}
	}

	summary := report.NewSummary(reports, startTime, time.Now())
	if err := writeReports(cfg, summary); err != nil {
		return err
	}

	return batchErr
}

// loadTasks builds the task list from the single-domain flag or the
// domains CSV file.
func loadTasks(cfg *config.Config) ([]*model.DomainTask, error) {
	if cfg.Domain != "" {
		return []*model.DomainTask{model.NewDomainTask(cfg.Domain, "")}, nil
	}
	return tasks.LoadDomains(cfg.DomainsFile)
}

// buildPipeline assembles the per-domain pipeline, applying site
// overrides from the configuration file.
func buildPipeline(
	cfg *config.Config,
	task *model.DomainTask,
	httpClient *http.Client,
	extractor *crawler.Extractor,
	validator *validate.Validator,
	submitter *submit.Submitter,
	sender *mailer.Mailer,
	db *database.ResultDB,
	logger *slog.Logger,
) *pipeline.Pipeline {
	site := cfg.SiteConfigs.GetSiteConfig(bareDomain(task.Domain))

	headers := make(map[string]string, len(site.Headers)+1)
	for k, v := range site.Headers {
		headers[k] = v
	}
	if site.Cookie != "" {
		headers["Cookie"] = site.Cookie
	}

	fetcher := crawler.NewFetcher(httpClient,
		crawler.WithSpacing(cfg.Delay),
		crawler.WithMaxAttempts(cfg.Retries),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRobotsCheck(cfg.CheckRobots),
		crawler.WithHeaders(headers),
	)

	maxPages := cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}

	crawlOpts := []crawler.Option{
		crawler.WithMaxDynamicPages(maxPages),
		crawler.WithLogger(logger),
	}
	if len(site.ContactPaths) > 0 {
		crawlOpts = append(crawlOpts, crawler.WithContactPaths(site.ContactPaths))
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewCrawlStep(
			crawler.New(fetcher, extractor, crawlOpts...),
			pipeline.WithCrawlLogger(logger),
		),
		pipeline.NewFormStep(submitter, validator,
			pipeline.WithSkipSubmit(site.SkipSubmit),
			pipeline.WithFormLogger(logger),
		),
		pipeline.NewEmailFallbackStep(sender, db,
			pipeline.WithEmailLogger(logger),
		),
	)

	return p
}

// bareDomain strips the scheme so site config lookups match the bare
// domain keys used in the configuration file.
func bareDomain(domain string) string {
	for _, prefix := range []string{"http://", "https://"} {
		domain = strings.TrimPrefix(domain, prefix)
	}
	return strings.TrimSuffix(domain, "/")
}

// writeReports writes the run summary: always CSV and a human-readable
// console summary, plus optional Markdown and JSON files.
func writeReports(cfg *config.Config, summary *report.Summary) error {
	writers := []report.Writer{
		report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose)),
	}

	closers := make([]*os.File, 0, 3)
	defer func() {
		for _, f := range closers {
			_ = f.Close() //nolint:errcheck // Best effort cleanup
		}
	}()

	csvFile, err := createReportFile(cfg.OutputFile)
	if err != nil {
		return err
	}
	closers = append(closers, csvFile)
	writers = append(writers, report.NewCSVWriter(csvFile))

	if cfg.MarkdownFile != "" {
		f, err := createReportFile(cfg.MarkdownFile)
		if err != nil {
			return err
		}
		closers = append(closers, f)
		writers = append(writers, report.NewMarkdownWriter(f))
	}

	if cfg.JSONFile != "" {
		f, err := createReportFile(cfg.JSONFile)
		if err != nil {
			return err
		}
		closers = append(closers, f)
		writers = append(writers, report.NewJSONWriter(f, report.WithPrettyPrint()))
	}

	if _, err := report.NewMultiWriter(writers...).Write(summary); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	return nil
}

// createReportFile creates a report file with owner-only permissions,
// creating parent directories as needed.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Results may identify targets and recipients, keep them owner-only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// waitForSchedule blocks until the configured HH:MM start time.
// An empty schedule starts immediately. When the time has already
// passed today, the run waits for tomorrow's occurrence.
func waitForSchedule(ctx context.Context, schedule string, logger *slog.Logger) error {
	if schedule == "" {
		return nil
	}

	wait := untilNextRun(schedule, time.Now())
	logger.Info("waiting for scheduled start",
		"schedule", schedule,
		"wait", wait.Round(time.Second),
	)
	fmt.Printf("Scheduled start at %s (in %s)...\n", schedule, wait.Round(time.Second))

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// untilNextRun returns the duration from now until the next occurrence
// of the "HH:MM" schedule.
func untilNextRun(schedule string, now time.Time) time.Duration {
	at, err := time.Parse("15:04", schedule)
	if err != nil {
		return 0
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
