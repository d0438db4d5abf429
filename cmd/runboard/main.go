// Package main provides the CLI entrypoint for runboard.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/runboard/internal/config"
	"github.com/verte-zerg/runboard/internal/dashboard"
	"github.com/verte-zerg/runboard/internal/export"
	"github.com/verte-zerg/runboard/internal/ingest"
	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/schema"
	"github.com/verte-zerg/runboard/internal/stats"
)

var (
	flagBatchSize  int
	flagClearDelay time.Duration
	flagExportDir  string
	flagLogLevel   string
	flagLogFile    string

	exportFormat string
)

var exportFormats = map[string][]string{
	"csv":  {export.CSVFileName},
	"pdf":  {export.PDFFileName},
	"html": {export.HTMLFileName},
	"all":  {export.CSVFileName, export.PDFFileName, export.HTMLFileName},
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "runboard [file.csv]",
		Short:         "Running log dashboard",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&flagBatchSize, "batch-size", config.DefaultBatchSize, "rows per streamed chunk")
	flags.DurationVar(&flagClearDelay, "clear-delay", config.DefaultClearDelay, "how long the finished progress bar stays visible")
	flags.StringVar(&flagExportDir, "out", config.DefaultExportDir(), "export directory")
	flags.StringVar(&flagLogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFile, "log-file", "", "dashboard log file (default: XDG state dir)")

	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// resolveSettings merges the config file under the command-line flags.
func resolveSettings(cmd *cobra.Command) (model.Settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "batch-size", &flagBatchSize, fileCfg.Ingest.BatchSize)
	if d := fileCfg.Ingest.ClearDelay; d != nil {
		applyDurationConfig(cmd, "clear-delay", &flagClearDelay, &d.Duration)
	}
	applyStringConfig(cmd, "out", &flagExportDir, fileCfg.Export.Dir)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &flagLogFile, fileCfg.Log.File)

	settings := model.Settings{
		BatchSize:  flagBatchSize,
		ClearDelay: flagClearDelay,
		ExportDir:  flagExportDir,
		LogLevel:   strings.ToLower(strings.TrimSpace(flagLogLevel)),
		LogFile:    flagLogFile,
	}
	if err := config.Validate(settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func newIngestor(settings model.Settings, logger *slog.Logger) *ingest.Ingestor {
	return ingest.New(
		ingest.WithBatchSize(settings.BatchSize),
		ingest.WithClearDelay(settings.ClearDelay),
		ingest.WithLogger(logger),
	)
}

func runDashboardCmd(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logPath := settings.LogFile
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	logger, logFile, err := config.OpenLogFile(logPath, settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	opts := dashboard.Options{
		Context:   ctx,
		Ingestor:  newIngestor(settings, logger),
		Logger:    logger,
		ExportDir: settings.ExportDir,
	}
	if len(args) == 1 {
		opts.File = args[0]
		opts.StartDir = filepath.Dir(args[0])
	}
	logger.Info("dashboard started", "file", opts.File)
	program := tea.NewProgram(dashboard.NewModel(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print stats for a CSV running log",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), settings.LogLevel)
	rows, err := loadRows(cmd.Context(), newIngestor(settings, logger), args[0])
	if err != nil {
		return err
	}
	report := stats.BuildReport(len(rows), schema.ExtractRows(rows))
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if report.Empty() {
		return nil
	}
	if err := stats.RenderPeopleTable(out, report.People); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTrend(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a CSV running log as CSV, PDF or HTML",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "all", "output format (csv, pdf, html, all)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	names, ok := exportFormats[strings.ToLower(exportFormat)]
	if !ok {
		return fmt.Errorf("--format must be one of: csv, pdf, html, all")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), settings.LogLevel)
	rows, err := loadRows(cmd.Context(), newIngestor(settings, logger), args[0])
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s has no rows to export", args[0])
	}
	report := stats.BuildReport(len(rows), schema.ExtractRows(rows))
	for _, name := range names {
		path, err := export.ToFile(settings.ExportDir, name, func(w io.Writer) error {
			return export.Write(w, name, report, rows)
		})
		if err != nil {
			return err
		}
		logger.Info("export written", "path", path)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// loadRows streams path until it succeeds or fails and returns every
// decoded row.
func loadRows(ctx context.Context, in *ingest.Ingestor, path string) ([]model.RawRow, error) {
	src, err := ingest.OpenFile(path)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var rows []model.RawRow
	err = ingest.Drain(in.Begin(ctx, src), func(ev ingest.Event) error {
		if chunk, ok := ev.(ingest.Chunk); ok {
			rows = append(rows, chunk.Rows...)
		}
		return nil
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return rows, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# runboard configuration
# Uncomment a value to enable it. CLI flags override config values.

[ingest]
# batch-size = %d         # Rows per streamed chunk
# clear-delay = %q     # How long the finished progress bar stays visible

[export]
# dir = "."               # Directory for runner_data.csv, Runner_Report.pdf, runner_charts.html

[log]
# level = %q          # debug, info, warn or error
# file = ""               # Dashboard log file (default: $XDG_STATE_HOME/runboard/runboard.log)
`,
		config.DefaultBatchSize,
		config.DefaultClearDelay.String(),
		config.DefaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
