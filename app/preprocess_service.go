package app

import (
	"context"
	"time"

	"featprep/domain/core"
	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/config"
	"featprep/internal/encoding"
	"featprep/internal/errors"
	"featprep/internal/imputation"
	"featprep/internal/selection"
	"featprep/internal/telemetry"
	"featprep/internal/timefeatures"
)

// Stage names, in execution order
const (
	StageImpute  = "impute"
	StageEncode  = "encode"
	StageTime    = "time"
	StageLag     = "lag"
	StageRolling = "rolling"
	StageRank    = "rank"
	StageSelect  = "select"
)

// PreprocessService turns a raw table into a dense, ranked feature table
type PreprocessService struct {
	cfg       config.PipelineConfig
	log       *internal.Logger
	imputer   *imputation.Imputer
	generator *timefeatures.Generator
	ranker    *selection.Ranker
	metrics   *telemetry.Metrics
}

// Result is the outcome of one pipeline run
type Result struct {
	RunID    core.RunID        `json:"run_id"`
	Table    *table.Table      `json:"-"`
	Ranking  []selection.Entry `json:"ranking"`
	Registry table.Registry    `json:"-"`
	Sources  []string          `json:"sources"`
	Stages   []StageReport     `json:"stages"`
	Runtime  time.Duration     `json:"runtime"`
}

// NewPreprocessService validates cfg and wires the stage components
func NewPreprocessService(cfg config.PipelineConfig, logger *internal.Logger) (*PreprocessService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := internal.OrDefault(logger, "pipeline")
	return &PreprocessService{
		cfg:       cfg,
		log:       log,
		imputer:   imputation.NewImputer(log).Preserve(cfg.DateColumn),
		generator: timefeatures.NewGenerator(cfg.Workers, log),
		ranker:    selection.NewRanker(cfg.Workers, log),
	}, nil
}

// WithMetrics records stage timings and outcomes on m
func (s *PreprocessService) WithMetrics(m *telemetry.Metrics) *PreprocessService {
	s.metrics = m
	return s
}

// Config returns the configuration the service runs with
func (s *PreprocessService) Config() config.PipelineConfig { return s.cfg }

// Run executes impute, encode, time, lag, rolling, rank and select in that
// fixed order. Any stage error aborts the run and no partial table is
// returned.
func (s *PreprocessService) Run(ctx context.Context, raw *table.Table) (*Result, error) {
	res, err := s.run(ctx, raw)
	if s.metrics != nil {
		s.metrics.RecordRun(err == nil)
	}
	return res, err
}

func (s *PreprocessService) run(ctx context.Context, raw *table.Table) (*Result, error) {
	started := time.Now()
	res := &Result{RunID: core.NewRunID()}
	s.log.Info("run %s: %d rows x %d columns, target %q", res.RunID, raw.Rows(), raw.Width(), s.cfg.Target)

	runner := NewStageRunner(s.log, s.metrics)
	tbl, err := s.prepare(ctx, runner, raw, res)
	if err != nil {
		return nil, err
	}

	tbl, err = runner.Run(ctx, StageRank, tbl, func(t *table.Table) (*table.Table, error) {
		ranking, err := s.ranker.RankByCorrelation(t, s.cfg.Target, s.cfg.TopN)
		if err != nil {
			return nil, err
		}
		res.Ranking = ranking
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	tbl, err = runner.Run(ctx, StageSelect, tbl, func(t *table.Table) (*table.Table, error) {
		return selection.Select(t, selection.Names(res.Ranking), s.cfg.Mandatory, s.cfg.Target)
	})
	if err != nil {
		return nil, err
	}

	res.Table = tbl
	res.Stages = runner.Reports()
	res.Runtime = time.Since(started)
	s.log.Info("run %s finished: %d rows x %d columns in %s", res.RunID, tbl.Rows(), tbl.Width(), res.Runtime)
	return res, nil
}

// Features runs every stage up to and including rolling features and
// returns the wide table the ranker would see.
func (s *PreprocessService) Features(ctx context.Context, raw *table.Table) (*table.Table, error) {
	return s.prepare(ctx, NewStageRunner(s.log, s.metrics), raw, &Result{})
}

func (s *PreprocessService) prepare(ctx context.Context, runner *StageRunner, raw *table.Table, res *Result) (*table.Table, error) {
	tbl, err := runner.Run(ctx, StageImpute, raw, func(t *table.Table) (*table.Table, error) {
		return s.imputer.Impute(t, s.cfg.Target, s.cfg.RowThreshold)
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.Encoding != config.EncodingNone {
		tbl, err = runner.Run(ctx, StageEncode, tbl, s.encode)
		if err != nil {
			return nil, err
		}
	}

	// column kinds are fixed from here on
	res.Registry = table.NewRegistry(tbl)
	res.Sources = s.sources(res.Registry)

	tbl, err = runner.Run(ctx, StageTime, tbl, func(t *table.Table) (*table.Table, error) {
		return s.generator.AddTimeFeatures(t, s.cfg.DateColumn)
	})
	if err != nil {
		return nil, err
	}

	tbl, err = runner.Run(ctx, StageLag, tbl, func(t *table.Table) (*table.Table, error) {
		return s.generator.AddLagFeatures(t, res.Sources, s.cfg.Lags)
	})
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx, StageRolling, tbl, func(t *table.Table) (*table.Table, error) {
		return s.generator.AddRollingFeatures(t, res.Sources, s.cfg.Windows, s.cfg.RollingStats)
	})
}

// sources are the target followed by every other numeric column except
// the date column
func (s *PreprocessService) sources(reg table.Registry) []string {
	out := []string{s.cfg.Target}
	for _, name := range reg.Numeric() {
		if name != s.cfg.Target && name != s.cfg.DateColumn {
			out = append(out, name)
		}
	}
	return out
}

func (s *PreprocessService) encode(t *table.Table) (*table.Table, error) {
	var columns []string
	for _, name := range t.NamesOfKind(table.KindCategorical) {
		if name != s.cfg.DateColumn && name != s.cfg.Target {
			columns = append(columns, name)
		}
	}

	switch s.cfg.Encoding {
	case config.EncodingLabel:
		out, _, err := encoding.LabelEncode(t, columns)
		return out, err
	case config.EncodingOneHot:
		return encoding.OneHotEncode(t, columns, false)
	default:
		return nil, errors.ConfigurationError("unknown encoding %q", s.cfg.Encoding)
	}
}
