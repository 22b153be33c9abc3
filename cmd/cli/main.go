package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"featprep/adapters/excel"
	"featprep/adapters/postgres"
	"featprep/app"
	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/config"
	"featprep/internal/errors"
	"featprep/internal/metrics"
	"featprep/internal/profiling"
	"featprep/internal/selection"
	"featprep/internal/split"
	"featprep/internal/telemetry"
	"featprep/internal/timefeatures"
	"featprep/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// sourceFlags select where the raw table comes from
type sourceFlags struct {
	input string
	sheet string
	dsn   string
	query string
}

// pipelineFlags override values loaded from the environment
type pipelineFlags struct {
	target     string
	dateColumn string
	topN       int
	threshold  float64
	encoding   string
	lags       string
	windows    string
	stats      string
	workers    int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var src sourceFlags
	var pf pipelineFlags

	rootCmd := &cobra.Command{
		Use:          "featprep",
		Short:        "Prepare dense, ranked feature tables from hourly energy market data",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&src.input, "input", "", "CSV or XLSX file holding the raw table")
	flags.StringVar(&src.sheet, "sheet", "", "XLSX sheet (default: first sheet)")
	flags.StringVar(&src.dsn, "dsn", "", "PostgreSQL connection string (used instead of --input)")
	flags.StringVar(&src.query, "query", "", "SQL query returning the raw table in temporal order")
	flags.StringVar(&pf.target, "target", "", "Target column (env FEATPREP_TARGET)")
	flags.StringVar(&pf.dateColumn, "date-column", "", "Date column (env FEATPREP_DATE_COLUMN)")
	flags.IntVar(&pf.topN, "top-n", 0, "Correlation-ranked features to keep (env FEATPREP_TOP_N)")
	flags.Float64Var(&pf.threshold, "threshold", 0, "Row completeness threshold (env FEATPREP_ROW_THRESHOLD)")
	flags.StringVar(&pf.encoding, "encoding", "", "Categorical encoding: none|label|onehot (env FEATPREP_ENCODING)")
	flags.StringVar(&pf.lags, "lags", "", "Comma separated lag offsets (env FEATPREP_LAGS)")
	flags.StringVar(&pf.windows, "windows", "", "Comma separated rolling windows (env FEATPREP_WINDOWS)")
	flags.StringVar(&pf.stats, "stats", "", "Comma separated rolling statistics (env FEATPREP_ROLLING_STATS)")
	flags.IntVar(&pf.workers, "workers", 0, "Per-column parallelism (env FEATPREP_WORKERS)")

	rootCmd.AddCommand(
		newRunCmd(&src, &pf),
		newRankCmd(&src, &pf),
		newFoldsCmd(&src, &pf),
		newBaselineCmd(&src, &pf),
		newProfileCmd(&src, &pf),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd(src *sourceFlags, pf *pipelineFlags) *cobra.Command {
	var output, metricsOut string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full preprocessing pipeline",
		Long: `Impute, derive calendar/lag/rolling features, rank them against the
target and write the dense selected table.

Example: featprep run --input energy.csv --output features.xlsx --top-n 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, raw, err := setup(cmd, src, pf)
			if err != nil {
				return err
			}
			var m *telemetry.Metrics
			if metricsOut != "" {
				m = telemetry.New()
				svc.WithMetrics(m)
			}
			res, err := svc.Run(cmd.Context(), raw)
			if m != nil {
				if werr := m.WriteTextfile(metricsOut); werr != nil {
					log.Printf("Failed to write metrics to %s: %v", metricsOut, werr)
				}
			}
			if err != nil {
				return err
			}
			if output != "" {
				if err := excel.NewFileSink(output).Save(cmd.Context(), res.Table); err != nil {
					return err
				}
			}
			if asJSON {
				return printJSON(res)
			}

			fmt.Printf("Run %s: %d rows x %d columns in %s\n", res.RunID, res.Table.Rows(), res.Table.Width(), res.Runtime)
			for _, s := range res.Stages {
				fmt.Printf("  %-8s %6d rows %5d columns %6dms\n", s.Name, s.Rows, s.Columns, s.DurationMs)
			}
			if output != "" {
				fmt.Printf("Wrote %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Write the result to this .csv or .xlsx file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run summary as JSON")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus textfile metrics for the run to this path")
	return cmd
}

func newRankCmd(src *sourceFlags, pf *pipelineFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the correlation ranking of the generated features",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, raw, err := setup(cmd, src, pf)
			if err != nil {
				return err
			}
			wide, err := svc.Features(cmd.Context(), raw)
			if err != nil {
				return err
			}

			cfg := svc.Config()
			ranker := selection.NewRanker(cfg.Workers, nil)
			var entries []selection.Entry
			if all {
				entries, err = ranker.Rank(wide, cfg.Target)
			} else {
				entries, err = ranker.RankByCorrelation(wide, cfg.Target, cfg.TopN)
			}
			if err != nil {
				return err
			}

			for i, e := range entries {
				score := "undefined"
				if e.Defined() {
					score = fmt.Sprintf("%.4f", e.Score)
				}
				fmt.Printf("%3d  %-40s %s\n", i+1, e.Name, score)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every candidate, including undefined correlations")
	return cmd
}

func newFoldsCmd(src *sourceFlags, pf *pipelineFlags) *cobra.Command {
	var splits int
	var testFraction float64

	cmd := &cobra.Command{
		Use:   "folds",
		Short: "Print time-series cross-validation folds of the prepared table",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, raw, err := setup(cmd, src, pf)
			if err != nil {
				return err
			}
			res, err := svc.Run(cmd.Context(), raw)
			if err != nil {
				return err
			}

			folds, err := split.TimeSeriesSplit(res.Table.Rows(), splits)
			if err != nil {
				return err
			}
			for i, f := range folds {
				fmt.Printf("fold %d: %s\n", i+1, f)
			}

			ds, err := split.TrainValidationSplit(res.Table, svc.Config().Target, testFraction)
			if err != nil {
				return err
			}
			tr, c := ds.XTrain.Dims()
			vr, _ := ds.XVal.Dims()
			fmt.Printf("holdout: %d train rows, %d validation rows, %d scaled features\n", tr, vr, c)
			return nil
		},
	}

	cmd.Flags().IntVar(&splits, "splits", 5, "Number of expanding-window folds")
	cmd.Flags().Float64Var(&testFraction, "test-fraction", 0.1, "Validation share of the chronological holdout")
	return cmd
}

func newBaselineCmd(src *sourceFlags, pf *pipelineFlags) *cobra.Command {
	var testFraction float64

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Score the persistence forecast (previous hour's target) on the prepared table",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, raw, err := setup(cmd, src, pf)
			if err != nil {
				return err
			}
			res, err := svc.Run(cmd.Context(), raw)
			if err != nil {
				return err
			}

			report, err := persistenceBaseline(res.Table, svc.Config().Target, testFraction)
			if err != nil {
				return err
			}
			fmt.Printf("MAE  %.4f\nRMSE %.4f\nMAPE %.2f%%\n", report.MAE, report.RMSE, report.MAPE)
			return nil
		},
	}

	cmd.Flags().Float64Var(&testFraction, "test-fraction", 1, "Score only the trailing share of rows")
	return cmd
}

func newProfileCmd(src *sourceFlags, pf *pipelineFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Summarise the raw table's columns before preprocessing",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, raw, err := setup(cmd, src, pf)
			if err != nil {
				return err
			}
			profiles, err := profiling.Profile(raw)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(profiles)
			}

			fmt.Printf("%d rows x %d columns\n", raw.Rows(), raw.Width())
			for _, p := range profiles {
				line := fmt.Sprintf("  %-32s %-11s missing %5.1f%%", p.Name, p.Kind, 100*p.MissingFraction)
				switch {
				case p.Summary != nil:
					line += fmt.Sprintf("  mean %.3f std %.3f [%.3f, %.3f] outliers %d",
						p.Summary.Mean, p.Summary.StdDev, p.Summary.Min, p.Summary.Max, p.Summary.Outliers)
				case p.Levels > 0:
					line += fmt.Sprintf("  %d levels", p.Levels)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print profiles as JSON")
	return cmd
}

// persistenceBaseline scores {target}_lag_1 as a forecast of target over the
// trailing testFraction of rows
func persistenceBaseline(tbl *table.Table, target string, testFraction float64) (metrics.Report, error) {
	if testFraction <= 0 || testFraction > 1 {
		return metrics.Report{}, errors.ConfigurationError("test fraction must be within (0, 1], got %g", testFraction)
	}
	lagName := timefeatures.LagName(target, 1)
	actual, ok := tbl.Column(target)
	if !ok {
		return metrics.Report{}, errors.ConfigurationError("target column %q not found", target)
	}
	predicted, ok := tbl.Column(lagName)
	if !ok {
		return metrics.Report{}, errors.ConfigurationError("%q was not selected; add lag 1 or raise --top-n", lagName)
	}
	start := int(float64(tbl.Rows()) * (1 - testFraction))
	return metrics.Evaluate(actual.Floats()[start:], predicted.Floats()[start:])
}

// setup resolves configuration and loads the raw table
func setup(cmd *cobra.Command, src *sourceFlags, pf *pipelineFlags) (*app.PreprocessService, *table.Table, error) {
	cfg, err := resolveConfig(cmd, pf)
	if err != nil {
		return nil, nil, err
	}

	logger := internal.NewDefaultLogger()
	svc, err := app.NewPreprocessService(*cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	source, closeFn, err := openSource(cmd.Context(), src, logger)
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()

	raw, err := source.Load(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return svc, raw, nil
}

func openSource(ctx context.Context, src *sourceFlags, logger *internal.Logger) (ports.TableSource, func(), error) {
	switch {
	case src.dsn != "":
		if strings.TrimSpace(src.query) == "" {
			return nil, nil, errors.ConfigurationError("--query is required with --dsn")
		}
		db, err := postgres.Open(ctx, src.dsn)
		if err != nil {
			return nil, nil, err
		}
		source := postgres.NewTableSource(db, excel.DefaultExcelConfig("").CoercionConfig, logger, src.query)
		return source, func() { db.Close() }, nil
	case src.input != "":
		ec := excel.DefaultExcelConfig(src.input)
		ec.Sheet = src.sheet
		return excel.NewDataReader(ec, logger), func() {}, nil
	default:
		return nil, nil, errors.ConfigurationError("either --input or --dsn is required")
	}
}

// resolveConfig loads the environment and applies explicitly set flags
func resolveConfig(cmd *cobra.Command, pf *pipelineFlags) (*config.PipelineConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("target") {
		cfg.Target = pf.target
	}
	if set("date-column") {
		cfg.DateColumn = pf.dateColumn
	}
	if set("top-n") {
		cfg.TopN = pf.topN
	}
	if set("threshold") {
		cfg.RowThreshold = pf.threshold
	}
	if set("encoding") {
		cfg.Encoding = pf.encoding
	}
	if set("workers") {
		cfg.Workers = pf.workers
	}
	if set("stats") {
		cfg.RollingStats = strings.Split(strings.ReplaceAll(pf.stats, " ", ""), ",")
	}
	if set("lags") {
		if cfg.Lags, err = config.ParseInts(pf.lags); err != nil {
			return nil, err
		}
	}
	if set("windows") {
		if cfg.Windows, err = config.ParseInts(pf.windows); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
