package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradeunity/salesintel/pkg/apperrors"
	"github.com/tradeunity/salesintel/pkg/config"
	"github.com/tradeunity/salesintel/pkg/models"
	"github.com/tradeunity/salesintel/pkg/repositories"
	"github.com/tradeunity/salesintel/pkg/workbook"
)

// Artifact names passed between stages.
const (
	ArtifactSales        = "sales"
	ArtifactCatalog      = "catalog"
	ArtifactCEG          = "ceg"
	ArtifactStock        = "stock"
	ArtifactCalendar     = "calendar"
	ArtifactPublications = "publications"
	ArtifactClean        = "sales.clean"
	ArtifactActive       = "sales.active"
	ArtifactEnriched     = "sales.enriched"
	ArtifactJoin         = "join.report"
	ArtifactCustomers    = "customers"
	ArtifactWorkbooks    = "workbooks"
)

// optionalArtifacts may be absent; reports that need them are skipped.
var optionalArtifacts = map[string]bool{
	ArtifactCalendar:     true,
	ArtifactPublications: true,
}

// Run holds the artifacts of one pipeline execution. Each stage reads the
// artifacts it requires and sets the ones it provides.
type Run struct {
	ReferenceDate time.Time
	Registry      *models.ReportRun

	Sales        []*models.SalesLineItem
	Catalog      *models.Catalog
	Prices       *models.PriceList
	Stock        *models.Inventory
	Events       []*models.CalendarEvent
	Publications *models.Publications

	Clean  []*models.SalesLineItem
	Active []*models.SalesLineItem

	Lines     []*models.EnrichedLine
	Join      *models.JoinReport
	Customers []*models.CustomerAggregate

	EventCategories config.EventCategoryTable
	Workbooks       []*workbook.Workbook
	Skipped         []string

	provided map[string]bool
}

// NewRun creates an empty run measured against referenceDate.
func NewRun(referenceDate time.Time) *Run {
	return &Run{ReferenceDate: referenceDate, provided: make(map[string]bool)}
}

// Provide marks artifacts as available.
func (r *Run) Provide(names ...string) {
	for _, n := range names {
		r.provided[n] = true
	}
}

// Has reports whether an artifact is available.
func (r *Run) Has(name string) bool {
	return r.provided[name]
}

// Missing returns the names in names that are not available.
func (r *Run) Missing(names []string) []string {
	var out []string
	for _, n := range names {
		if !r.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// ReportData exposes the run's artifacts to the report builders.
func (r *Run) ReportData() *ReportData {
	return &ReportData{
		ReferenceDate:   r.ReferenceDate,
		Lines:           r.Lines,
		Join:            r.Join,
		Customers:       r.Customers,
		Catalog:         r.Catalog,
		Prices:          r.Prices,
		Stock:           r.Stock,
		Events:          r.Events,
		EventCategories: r.EventCategories,
		Publications:    r.Publications,
	}
}

// Stage is one named step of the pipeline.
type Stage interface {
	// Name returns the stage name (e.g., "enrich").
	Name() string
	// Requires lists the artifacts that must exist before Execute.
	Requires() []string
	// Provides lists the artifacts Execute sets on success.
	Provides() []string
	// Execute runs the stage's work.
	Execute(ctx context.Context, run *Run) error
}

// Pipeline runs stages in order, checking preconditions before each one.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// NewPipeline creates a pipeline of the given stages.
func NewPipeline(logger *zap.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, logger: logger.Named("pipeline")}
}

// Execute runs every stage. It stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if missing := run.Missing(stage.Requires()); len(missing) > 0 {
			return fmt.Errorf("%w: stage %s needs %v", apperrors.ErrPreconditionUnmet, stage.Name(), missing)
		}

		start := time.Now()
		if err := stage.Execute(ctx, run); err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
		run.Provide(stage.Provides()...)

		p.logger.Info("Stage complete",
			zap.String("stage", stage.Name()),
			zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// DefaultStages wires the standard stage sequence from configuration.
func DefaultStages(cfg *config.Config, inputs repositories.InputRepository, sinks []workbook.Sink, logger *zap.Logger) []Stage {
	return []Stage{
		&loadStage{inputs: inputs, cfg: cfg, logger: logger.Named("load")},
		&cleanStage{logger: logger},
		&filterStage{logger: logger},
		&enrichStage{logger: logger},
		&customersStage{logger: logger},
		NewReportStage(ReportBuilders(cfg, logger), logger),
		NewEmitStage(sinks, logger),
	}
}

// ReportBuilders returns the builders of the configured report families,
// in emission order.
func ReportBuilders(cfg *config.Config, logger *zap.Logger) []ReportBuilder {
	all := map[string]ReportBuilder{
		config.ReportEnrichedSales: NewEnrichedSalesReport(logger),
		config.ReportCustomers:     NewCustomerReport(cfg.Customers.TopN, logger),
		config.ReportOpportunities: NewOpportunityReport(cfg.Customers.QuarterStartYear, logger),
		config.ReportInventory:     NewInventoryReport(logger),
		config.ReportCalendar:      NewCalendarReport(cfg.Calendar.SuggestionsPerEvent, logger),
		config.ReportPricing:       NewPricingReport(logger),
	}
	var out []ReportBuilder
	for _, name := range config.AllReports {
		if cfg.ReportEnabled(name) {
			out = append(out, all[name])
		}
	}
	return out
}

type loadStage struct {
	inputs repositories.InputRepository
	cfg    *config.Config
	logger *zap.Logger
}

func (s *loadStage) Name() string       { return "load" }
func (s *loadStage) Requires() []string { return nil }

// Provides lists only the required inputs; optional ones are marked by
// Execute when present.
func (s *loadStage) Provides() []string {
	return []string{ArtifactSales, ArtifactCatalog, ArtifactCEG, ArtifactStock}
}

func (s *loadStage) Execute(ctx context.Context, run *Run) error {
	in := s.cfg.Inputs
	var err error

	if run.Sales, err = s.inputs.LoadSales(ctx, in.Sales); err != nil {
		return err
	}
	if run.Catalog, err = s.inputs.LoadCatalog(ctx, in.Catalog); err != nil {
		return err
	}
	if run.Prices, err = s.inputs.LoadPriceList(ctx, in.CEGPrices); err != nil {
		return err
	}
	if run.Stock, err = s.inputs.LoadStock(ctx, in.Stock); err != nil {
		return err
	}

	if s.cfg.ReportEnabled(config.ReportCalendar) {
		events, err := s.inputs.LoadCalendar(ctx, in.Calendar, s.cfg.Calendar.BusinessUnit)
		if err := s.optional(ArtifactCalendar, err); err != nil {
			return err
		}
		if err == nil {
			run.Events = events
			run.Provide(ArtifactCalendar)
		}
		table, err := config.LoadEventCategories(s.cfg.Calendar.EventCategoriesPath)
		if err != nil {
			return err
		}
		run.EventCategories = table
	}

	if s.cfg.ReportEnabled(config.ReportPricing) {
		pubs, err := s.inputs.LoadPublications(ctx, in.Publications)
		if err := s.optional(ArtifactPublications, err); err != nil {
			return err
		}
		if err == nil {
			run.Publications = pubs
			run.Provide(ArtifactPublications)
		}
	}

	return nil
}

// optional turns a missing optional file into a warning.
func (s *loadStage) optional(artifact string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrMissingFile) {
		s.logger.Warn("Optional input missing, dependent reports will be skipped",
			zap.String("artifact", artifact),
			zap.Error(err))
		return nil
	}
	return err
}

type cleanStage struct {
	logger *zap.Logger
}

func (s *cleanStage) Name() string       { return "clean" }
func (s *cleanStage) Requires() []string { return []string{ArtifactSales} }
func (s *cleanStage) Provides() []string { return []string{ArtifactClean} }

func (s *cleanStage) Execute(_ context.Context, run *Run) error {
	run.Clean = CleanSales(run.Sales, s.logger)
	return nil
}

type filterStage struct {
	logger *zap.Logger
}

func (s *filterStage) Name() string       { return "filter-active" }
func (s *filterStage) Requires() []string { return []string{ArtifactClean} }
func (s *filterStage) Provides() []string { return []string{ArtifactActive} }

func (s *filterStage) Execute(_ context.Context, run *Run) error {
	run.Active = FilterActiveOrders(run.Clean, s.logger)
	return nil
}

type enrichStage struct {
	logger *zap.Logger
}

func (s *enrichStage) Name() string { return "enrich" }

func (s *enrichStage) Requires() []string {
	return []string{ArtifactActive, ArtifactCatalog, ArtifactCEG, ArtifactStock}
}

func (s *enrichStage) Provides() []string { return []string{ArtifactEnriched, ArtifactJoin} }

func (s *enrichStage) Execute(_ context.Context, run *Run) error {
	enricher := NewEnrichmentService(run.Catalog, run.Prices, run.Stock, run.ReferenceDate, s.logger)
	run.Lines, run.Join = enricher.Enrich(run.Active)
	return nil
}

type customersStage struct {
	logger *zap.Logger
}

func (s *customersStage) Name() string       { return "customers" }
func (s *customersStage) Requires() []string { return []string{ArtifactEnriched} }
func (s *customersStage) Provides() []string { return []string{ArtifactCustomers} }

func (s *customersStage) Execute(_ context.Context, run *Run) error {
	run.Customers = NewSegmentationService(run.ReferenceDate, s.logger).Aggregate(run.Lines)
	return nil
}

type reportStage struct {
	builders []ReportBuilder
	logger   *zap.Logger
}

// NewReportStage builds one workbook per builder. A builder whose only
// missing artifacts are optional inputs is skipped with a warning.
func NewReportStage(builders []ReportBuilder, logger *zap.Logger) Stage {
	return &reportStage{builders: builders, logger: logger.Named("reports")}
}

func (s *reportStage) Name() string       { return "reports" }
func (s *reportStage) Requires() []string { return nil }
func (s *reportStage) Provides() []string { return []string{ArtifactWorkbooks} }

func (s *reportStage) Execute(ctx context.Context, run *Run) error {
	data := run.ReportData()
	for _, b := range s.builders {
		if err := ctx.Err(); err != nil {
			return err
		}

		missing := run.Missing(b.Requires())
		if len(missing) > 0 {
			for _, m := range missing {
				if !optionalArtifacts[m] {
					return fmt.Errorf("%w: report %s needs %v", apperrors.ErrPreconditionUnmet, b.Report(), missing)
				}
			}
			s.logger.Warn("Skipping report, optional input missing",
				zap.String("report", b.Report()),
				zap.Strings("missing", missing))
			run.Skipped = append(run.Skipped, b.Report())
			continue
		}

		book, err := b.Build(data)
		if err != nil {
			return fmt.Errorf("failed to build %s report: %w", b.Report(), err)
		}
		run.Workbooks = append(run.Workbooks, book)

		s.logger.Info("Built report",
			zap.String("report", b.Report()),
			zap.String("workbook", book.Name),
			zap.Int("sheets", len(book.Sheets)))
	}
	return nil
}

type emitStage struct {
	sinks  []workbook.Sink
	logger *zap.Logger
}

// NewEmitStage writes every workbook to every sink, in sink order.
func NewEmitStage(sinks []workbook.Sink, logger *zap.Logger) Stage {
	return &emitStage{sinks: sinks, logger: logger.Named("emit")}
}

func (s *emitStage) Name() string       { return "emit" }
func (s *emitStage) Requires() []string { return []string{ArtifactWorkbooks} }
func (s *emitStage) Provides() []string { return nil }

func (s *emitStage) Execute(ctx context.Context, run *Run) error {
	if run.Registry != nil {
		run.Registry.SheetRowCounts = SheetRowCounts(run.Workbooks)
		if run.Join != nil {
			run.Registry.SalesLines = run.Join.Lines
			run.Registry.UnmatchedSKUs = run.Join.UnmatchedCount()
		}
	}

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, run.Registry, run.Workbooks); err != nil {
			return fmt.Errorf("%s sink: %w", sink.Name(), err)
		}
		s.logger.Info("Sink written",
			zap.String("sink", sink.Name()),
			zap.Int("workbooks", len(run.Workbooks)))
	}
	return nil
}

// SheetRowCounts keys the row count of every sheet by "workbook/sheet".
func SheetRowCounts(books []*workbook.Workbook) map[string]int {
	out := make(map[string]int)
	for _, b := range books {
		for sheet, n := range b.RowCounts() {
			out[b.Name+"/"+sheet] = n
		}
	}
	return out
}

