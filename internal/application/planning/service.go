package planning

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	hhapp "github.com/dietcompass/planner/internal/application/household"
	"github.com/dietcompass/planner/internal/application/matcher"
	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/errors"
	"github.com/dietcompass/planner/pkg/validation"
)

// Reconcile results reported to Metrics
const (
	ResultPublished          = "published"
	ResultNoOp               = "noop"
	ResultMalformed          = "malformed"
	ResultPersistenceFailure = "persistence_failure"
	ResultStreamError        = "stream_error"
	ResultFailed             = "failed"
)

// Metrics records pipeline outcomes
type Metrics interface {
	ObserveReconcile(mode mealplan.MergeMode, result string, duration time.Duration)
	ObserveWarnings(warnings shared.Warnings)
	ObserveResolution(hits, misses, minted int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveReconcile(mealplan.MergeMode, string, time.Duration) {}
func (nopMetrics) ObserveWarnings(shared.Warnings)                            {}
func (nopMetrics) ObserveResolution(int, int, int)                            {}

// Config tunes the pipeline
type Config struct {
	CatalogSliceSize int
	HistoryLimit     int
	FlexibleProfiles []string
	Scoring          scoring.Config
	// Clock stamps archive entries and events; time.Now when nil
	Clock func() time.Time
}

// Dependencies groups the ports the service drives
type Dependencies struct {
	Plans      outbound.PlanRepository
	Households outbound.HouseholdRepository
	Catalog    outbound.CatalogRepository
	// Client is optional; Generate fails without it
	Client     outbound.GenerationClient
	Dispatcher shared.EventDispatcher
	Metrics    Metrics
}

// Service implements the meal plan reconciliation use cases
type Service struct {
	deps      Dependencies
	config    Config
	resolver  *hhapp.Resolver
	assigner  *Assigner
	merger    *Merger
	builder   *RequestBuilder
	validator *validation.Validator
	locks     *householdLocks
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewService creates a planning service
func NewService(deps Dependencies, config Config, logger *zap.Logger) *Service {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	return &Service{
		deps:      deps,
		config:    config,
		resolver:  hhapp.NewResolver(config.FlexibleProfiles, logger),
		assigner:  NewAssigner(logger),
		merger:    NewMerger(config.Clock, config.HistoryLimit, logger),
		builder:   NewRequestBuilder(config.CatalogSliceSize, logger),
		validator: validation.New(),
		locks:     newHouseholdLocks(),
		tracer:    otel.Tracer("github.com/dietcompass/planner/planning"),
		logger:    logger.Named("planning-service"),
	}
}

// Reconcile runs the pipeline on a complete raw plan
func (s *Service) Reconcile(ctx context.Context, cmd inbound.ReconcileCommand) (*inbound.ReconcileOutcome, error) {
	if cmd.Mode == "" {
		cmd.Mode = mealplan.ModeFullWeek
	}
	ctx, span := s.tracer.Start(ctx, "planning.Reconcile", trace.WithAttributes(
		attribute.String("household.id", cmd.HouseholdID),
		attribute.String("merge.mode", string(cmd.Mode)),
	))
	defer span.End()

	start := time.Now()
	outcome, result, err := s.reconcile(ctx, cmd)
	s.deps.Metrics.ObserveReconcile(cmd.Mode, result, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.GetCode(err)))
	}
	return outcome, err
}

func (s *Service) reconcile(ctx context.Context, cmd inbound.ReconcileCommand) (*inbound.ReconcileOutcome, string, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, ResultFailed, err
	}

	unlock := s.locks.lock(cmd.HouseholdID)
	defer unlock()

	plan, warnings, err := generation.Decode(cmd.RawPlan)
	if err != nil {
		s.logger.Warn("Rejected malformed generation output",
			zap.String("household", cmd.HouseholdID),
			zap.Error(err),
		)
		return nil, ResultMalformed, err
	}

	ref, err := s.loadReference(ctx)
	if err != nil {
		return nil, ResultFailed, err
	}
	hh, err := s.loadHousehold(ctx, cmd.HouseholdID)
	if err != nil {
		return nil, ResultFailed, err
	}
	state, err := s.deps.Plans.LoadState(ctx, cmd.HouseholdID)
	if err != nil {
		return nil, ResultFailed, errors.Wrap(err, "failed to load plan state")
	}

	slots := plan.Slots
	if cmd.Mode == mealplan.ModeSingleDay && state.Plan != nil {
		slots = plan.SlotsOn(cmd.Date)
		if len(slots) == 0 {
			return nil, ResultMalformed, errors.NewMalformedInputError("no meals generated for " + cmd.Date)
		}
		for _, slot := range plan.Slots {
			if slot.Date != cmd.Date {
				warnings = append(warnings, shared.NewWarning(
					errors.NewMealOutsideDateError(slot.Date, cmd.Date), slot.Date+" "+string(slot.MealType)))
			}
		}
	}
	refs := make([]generation.RecipeRef, 0, len(slots))
	for _, slot := range slots {
		refs = append(refs, slot.Ref)
	}

	engine := scoring.NewEngine(scoring.NewTable(ref.health), s.config.Scoring, s.logger)
	resolution, err := matcher.NewMatcher(matcher.NewCatalog(ref.catalog), engine, s.logger).Resolve(ctx, refs)
	if err != nil {
		return nil, ResultFailed, errors.Wrap(err, "failed to resolve recipes")
	}
	s.deps.Metrics.ObserveResolution(resolution.CatalogHits, resolution.CatalogMisses, resolution.Minted)
	warnings = append(warnings, resolution.Warnings...)

	groups := s.resolver.Partition(hh.Eaters, hh.Profiles)

	byID := make(map[string]recipe.Recipe, len(resolution.Recipes))
	for _, r := range resolution.Recipes {
		byID[r.ID] = r
	}
	meals, assignWarnings := s.assigner.Assign(slots, resolution.RecipeIDs, hh, byID)
	warnings = append(warnings, assignWarnings...)

	merged := s.merger.Merge(state, Incoming{Plan: plan, Recipes: resolution.Recipes, Meals: meals}, cmd.Mode, cmd.Date)
	warnings = append(warnings, merged.Warnings...)
	s.deps.Metrics.ObserveWarnings(warnings)

	outcome := &inbound.ReconcileOutcome{
		Meals:   merged.State.Meals,
		Recipes: merged.State.Recipes,
		Report: inbound.ReconcileReport{
			Mode:            merged.Mode,
			Warnings:        append(shared.Warnings{}, warnings...),
			CatalogHits:     resolution.CatalogHits,
			CatalogMisses:   resolution.CatalogMisses,
			MintedRecipes:   resolution.Minted,
			Archived:        merged.Archived,
			NoOp:            merged.NoOp,
			PrunedRecipeIDs: merged.Pruned,
			DietGroups:      groups,
			MultiRecipe:     hhapp.NeedsMultipleRecipes(groups),
		},
	}
	if merged.Mode == mealplan.ModeSingleDay {
		outcome.Report.Date = cmd.Date
	}
	if merged.State.Plan != nil {
		outcome.Plan = *merged.State.Plan
	}

	if merged.NoOp {
		outcome.Persisted = true
		s.logger.Info("Generation output already applied",
			zap.String("household", cmd.HouseholdID),
			zap.String("plan_id", outcome.Plan.ID),
		)
		return outcome, ResultNoOp, nil
	}

	if err := s.deps.Plans.PublishState(ctx, cmd.HouseholdID, merged.State, state.Version()); err != nil {
		s.logger.Error("Failed to publish plan state",
			zap.String("household", cmd.HouseholdID),
			zap.String("plan_id", outcome.Plan.ID),
			zap.Error(err),
		)
		if errors.Is(err, errors.CodeConflict) {
			return outcome, ResultPersistenceFailure, err
		}
		return outcome, ResultPersistenceFailure, errors.NewPersistenceError("publish plan state", err)
	}
	outcome.Persisted = true
	s.dispatch(merged.Events)

	s.logger.Info("Plan reconciled",
		zap.String("household", cmd.HouseholdID),
		zap.String("mode", string(merged.Mode)),
		zap.String("plan_id", outcome.Plan.ID),
		zap.Int64("version", outcome.Plan.Version),
		zap.Int("meals", len(outcome.Meals)),
		zap.Int("recipes", len(outcome.Recipes)),
		zap.Int("warnings", len(warnings)),
	)
	return outcome, ResultPublished, nil
}

// ConsumeStream reads generator frames and reconciles the completed plan
func (s *Service) ConsumeStream(ctx context.Context, cmd inbound.StreamCommand, frames io.Reader, onProgress inbound.ProgressFunc) (*inbound.ReconcileOutcome, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	if cmd.Mode == "" {
		cmd.Mode = mealplan.ModeFullWeek
	}

	start := time.Now()
	raw, err := ReadFrames(ctx, frames, onProgress)
	if err != nil {
		s.deps.Metrics.ObserveReconcile(cmd.Mode, ResultStreamError, time.Since(start))
		s.logger.Warn("Generation stream failed, plan left untouched",
			zap.String("household", cmd.HouseholdID),
			zap.Error(err),
		)
		return nil, err
	}

	return s.Reconcile(ctx, inbound.ReconcileCommand{
		HouseholdID: cmd.HouseholdID,
		RawPlan:     raw,
		Mode:        cmd.Mode,
		Date:        cmd.Date,
	})
}

// Generate asks the generator for a plan or a regenerated day and
// reconciles it
func (s *Service) Generate(ctx context.Context, cmd inbound.GenerateCommand, onProgress inbound.ProgressFunc) (*inbound.ReconcileOutcome, error) {
	if s.deps.Client == nil {
		return nil, errors.NewExternalServiceError("meal generator", stderrors.New("no generation client configured"))
	}
	req, err := s.BuildRequest(ctx, cmd.BuildRequestCommand)
	if err != nil {
		return nil, err
	}

	body, err := s.deps.Client.Stream(ctx, *req)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.NewExternalServiceError("meal generator", err)
	}
	defer body.Close()

	stream := inbound.StreamCommand{HouseholdID: cmd.HouseholdID, Mode: mealplan.ModeFullWeek}
	if cmd.RegenerateDate != "" {
		stream.Mode = mealplan.ModeSingleDay
		stream.Date = cmd.RegenerateDate
	}
	return s.ConsumeStream(ctx, stream, body, onProgress)
}

// BuildRequest assembles the generation request of a household
func (s *Service) BuildRequest(ctx context.Context, cmd inbound.BuildRequestCommand) (*generation.Request, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	hh, err := s.loadHousehold(ctx, cmd.HouseholdID)
	if err != nil {
		return nil, err
	}
	index, err := s.deps.Catalog.Index(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recipe index")
	}
	state, err := s.deps.Plans.LoadState(ctx, cmd.HouseholdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load plan state")
	}

	groups := s.resolver.Partition(hh.Eaters, hh.Profiles)
	req := s.builder.Build(RequestInput{
		ChatHistory:       cmd.ChatHistory,
		BaseSpecification: cmd.BaseSpecification,
		Eaters:            hh.Eaters,
		Groups:            groups,
		MultiRecipe:       hhapp.NeedsMultipleRecipes(groups),
		Index:             index,
		State:             state,
		RegenerateDate:    cmd.RegenerateDate,
	})
	return &req, nil
}

// CurrentPlan returns the active plan of a household
func (s *Service) CurrentPlan(ctx context.Context, householdID string) (*inbound.PlanView, error) {
	state, err := s.deps.Plans.LoadState(ctx, householdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load plan state")
	}
	if state.Plan == nil {
		return nil, errors.NewNotFoundError("Meal plan")
	}
	return &inbound.PlanView{Plan: *state.Plan, Meals: state.Meals, Recipes: state.Recipes}, nil
}

// History returns the archived plans of a household, most recent last
func (s *Service) History(ctx context.Context, householdID string) (mealplan.History, error) {
	state, err := s.deps.Plans.LoadState(ctx, householdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load plan state")
	}
	if state.History == nil {
		return mealplan.History{}, nil
	}
	return state.History, nil
}

type reference struct {
	catalog []recipe.Recipe
	health  []recipe.HealthEntry
}

func (s *Service) loadReference(ctx context.Context) (reference, error) {
	catalog, err := s.deps.Catalog.Catalog(ctx)
	if err != nil {
		return reference{}, errors.Wrap(err, "failed to load recipe catalog")
	}
	health, err := s.deps.Catalog.HealthTable(ctx)
	if err != nil {
		return reference{}, errors.Wrap(err, "failed to load ingredient health table")
	}
	return reference{catalog: catalog, health: health}, nil
}

func (s *Service) loadHousehold(ctx context.Context, householdID string) (Household, error) {
	eaters, err := s.deps.Households.Eaters(ctx, householdID)
	if err != nil {
		return Household{}, errors.Wrap(err, "failed to load eaters")
	}
	schedule, err := s.deps.Households.Schedule(ctx, householdID)
	if err != nil {
		return Household{}, errors.Wrap(err, "failed to load schedule")
	}
	profiles, err := s.deps.Households.Profiles(ctx)
	if err != nil {
		return Household{}, errors.Wrap(err, "failed to load diet profiles")
	}
	if profiles == nil {
		profiles = household.ProfileTable{}
	}
	return Household{Eaters: eaters, Schedule: schedule, Profiles: profiles}, nil
}

func (s *Service) dispatch(events []shared.DomainEvent) {
	if s.deps.Dispatcher == nil {
		return
	}
	for _, event := range events {
		if err := s.deps.Dispatcher.Dispatch(event); err != nil {
			s.logger.Error("Failed to dispatch event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
}

var _ inbound.PlanningService = (*Service)(nil)
