package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/labelaudit/internal/adapters/source"
	service "github.com/okian/labelaudit/internal/app"
	"github.com/okian/labelaudit/internal/config"
	"github.com/okian/labelaudit/internal/domain/join"
	"github.com/okian/labelaudit/internal/sample"
	"github.com/okian/labelaudit/pkg/logger"
	"github.com/okian/labelaudit/pkg/metrics"
)

// cli holds flag values and the config loaded before a command runs.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	project    string
	lookback   time.Duration
	outDir     string
	eventsFile string
	joinPolicy string
	topN       int

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "labelaudit",
		Short: "Reviewer-quality reports from labeling platform logs",
		Long: `labelaudit joins review actions in a labeling project's label log to the
submissions they judged and reports per-annotator rejection rates.

Configuration is layered: defaults, then a YAML file (--config or
LABELAUDIT_CONFIG), then LABELAUDIT_* environment variables, then flags.

Examples:
  labelaudit rejection-rates --project p-123 --out-dir reports
  labelaudit task-outcomes --events-file export.jsonl --join-policy time-ordered
  labelaudit underperformers --lookback 336h | curl -d @- "$WEBHOOK"`,
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		c.reportCmd(service.ReportRejectionRates, "Write the annotator x label type rejection rate table",
			"Writes annotator_accuracy_<date>.csv with one row per annotator and one column\nper label type. Cells never reviewed are 0."),
		c.reportCmd(service.ReportTaskOutcomes, "Write task review outcomes and per-annotator task totals",
			"Writes task_outcome_<date>.csv and task_rejection_<date>.csv. Task reviews go\nto the latest submission before them unless --join-policy says otherwise."),
		c.reportCmd(service.ReportUnderperformers, "Print the worst annotators per watched label as a chat message",
			"Prints a blocks JSON message on stdout listing, for each label of interest,\nthe annotators with the highest non-zero rejection rates."),
		c.sampleCmd(),
	)
	return root
}

// setup loads config, applies flag overrides and initializes logging.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	override := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	override("log-level", func() { cfg.LogLevel = c.logLevel })
	override("log-format", func() { cfg.LogFormat = c.logFormat })
	override("project", func() { cfg.ProjectID = c.project })
	override("lookback", func() { cfg.Lookback = c.lookback })
	override("out-dir", func() { cfg.OutDir = c.outDir })
	override("events-file", func() { cfg.EventsFile = c.eventsFile })
	override("join-policy", func() { cfg.JoinPolicy = c.joinPolicy })
	override("top-n", func() { cfg.TopN = c.topN })

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func (c *cli) reportCmd(r service.Report, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(r),
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd)
			if err != nil {
				return err
			}
			sum, err := svc.Run(cmd.Context(), r)
			if err != nil {
				return err
			}
			for _, f := range sum.Files {
				fmt.Fprintln(cmd.ErrOrStderr(), "wrote", f)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.project, "project", "", "labeling project id")
	f.DurationVar(&c.lookback, "lookback", 0, "how far back to read the label log, e.g. 336h")
	f.StringVar(&c.outDir, "out-dir", "", "directory for CSV reports")
	f.StringVar(&c.eventsFile, "events-file", "", "read an exported label log instead of the API")
	f.StringVar(&c.joinPolicy, "join-policy", "", "label-keyed or time-ordered (default depends on the report)")
	f.IntVar(&c.topN, "top-n", 0, "annotators listed per label")
	return cmd
}

func (c *cli) service(cmd *cobra.Command) (*service.Service, error) {
	cfg := c.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get()

	var src source.Source
	if cfg.EventsFile != "" {
		src = source.NewFile(cfg.EventsFile, source.WithLogger(log.Named("source")))
	} else {
		src = source.NewHTTP(cfg.APIURL, cfg.ProjectID,
			source.WithHTTPLogger(log.Named("source")),
			source.WithCredentialPath(cfg.CredentialPath),
			source.WithRetries(cfg.FetchRetries),
		)
	}

	constLabels := map[string]string{}
	if cfg.ProjectID != "" {
		constLabels["project"] = cfg.ProjectID
	}
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithMetrics(metrics.NewManager(metrics.WithConstLabels(constLabels))),
		service.WithMetricsTextfile(cfg.MetricsTextfile),
		service.WithLookback(cfg.Lookback),
		service.WithOutDir(cfg.OutDir),
		service.WithStdout(cmd.OutOrStdout()),
		service.WithTopN(cfg.TopN),
		service.WithLabels(cfg.LabelsOfInterest),
	}
	if cfg.JoinPolicy != "" {
		p, err := join.ParsePolicy(cfg.JoinPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithJoinPolicy(p))
	}
	return service.New(src, opts...), nil
}

func (c *cli) sampleCmd() *cobra.Command {
	var (
		out        string
		objects    int
		annotators int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a synthetic label log as JSON lines",
		Long: `Generates a reproducible synthetic label log over the configured labels of
interest, for trying the reports without API access.

Examples:
  labelaudit sample --out sample.jsonl
  labelaudit rejection-rates --events-file sample.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			labels := make([]string, 0, len(c.cfg.LabelsOfInterest))
			for _, l := range c.cfg.LabelsOfInterest {
				labels = append(labels, l.Label)
			}
			cfg := sample.DefaultConfig(time.Now(), labels)
			cfg.Objects = objects
			cfg.Annotators = annotators
			cfg.Seed = seed

			logs, err := sample.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return sample.WriteJSONL(cmd.OutOrStdout(), logs)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("%w: %w", sample.ErrWrite, err)
			}
			if err := sample.WriteJSONL(f, logs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("%w: %w", sample.ErrWrite, err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	f.IntVar(&objects, "objects", sample.DefaultObjects, "labeled objects to generate")
	f.IntVar(&annotators, "annotators", sample.DefaultAnnotators, "annotators to generate")
	f.Uint64Var(&seed, "seed", 1, "random seed")
	return cmd
}
