package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	hhapp "github.com/dietcompass/planner/internal/application/household"
	"github.com/dietcompass/planner/internal/application/planning"
	recipeapp "github.com/dietcompass/planner/internal/application/recipe"
	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/infrastructure/config"
	"github.com/dietcompass/planner/internal/infrastructure/http/handlers"
	"github.com/dietcompass/planner/internal/infrastructure/http/middleware"
	"github.com/dietcompass/planner/internal/infrastructure/monitoring"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/collections"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/memory"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/pkg/errors"
	"github.com/dietcompass/planner/pkg/healthcheck"
	"github.com/dietcompass/planner/test/testutils"
)

const (
	home   = "home"
	monday = "2024-06-03"
)

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type ServerTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    *collections.Repository
	handler http.Handler
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	logger := zap.NewNop()
	suite.repo = collections.NewRepository(memory.NewStore(), "dietcompass", logger)

	salad := testutils.NewRecipeBuilder(2).WithName("Greek Salad").AsCatalog().Build()
	suite.Require().NoError(suite.repo.SaveCatalog(suite.ctx, []recipe.Recipe{salad}))
	suite.Require().NoError(suite.repo.SaveIndex(suite.ctx, recipe.BuildIndex([]recipe.Recipe{salad})))
	suite.Require().NoError(suite.repo.SaveHealthTable(suite.ctx, testutils.HealthTable()))
	suite.Require().NoError(suite.repo.SaveProfiles(suite.ctx, testutils.Profiles().Sorted()))
	suite.Require().NoError(suite.repo.SaveEaters(suite.ctx, home, household.Eaters{
		testutils.Eater("alex", "keto"),
		testutils.Eater("sam", "vegan"),
	}))
	suite.Require().NoError(suite.repo.SaveSchedule(suite.ctx, home, household.Schedule{
		"monday": {"dinner": {Servings: 2, EaterIDs: []string{"alex", "sam"}}},
	}))

	cfg := config.Default()
	cfg.Server.RateLimit.RequestsPerMin = 0
	suite.handler = suite.newHandler(cfg)
}

func (suite *ServerTestSuite) newHandler(cfg *config.Config) http.Handler {
	logger := zap.NewNop()
	bus := monitoring.NewEventBus(logger)
	metrics := monitoring.NewMetricsCollector(logger)
	planningService := planning.NewService(planning.Dependencies{
		Plans:      suite.repo,
		Households: suite.repo,
		Catalog:    suite.repo,
		Dispatcher: bus,
		Metrics:    metrics,
	}, planning.Config{
		CatalogSliceSize: 10,
		HistoryLimit:     5,
		Scoring:          scoring.DefaultConfig(),
	}, logger)
	recipeService := recipeapp.NewRecipeService(suite.repo, suite.repo, bus, scoring.DefaultConfig(), logger)
	householdService := hhapp.NewService(suite.repo, hhapp.NewResolver(nil, logger), logger)
	seeder := collections.NewSeeder(suite.repo, scoring.DefaultConfig(), logger)

	health := healthcheck.New("test", logger)
	health.Register("store", healthcheck.CheckerFunc(func(context.Context) (healthcheck.Status, string) {
		return healthcheck.StatusHealthy, ""
	}))

	srv := NewServer(cfg, logger, Handlers{
		Planning:  handlers.NewPlanningHandlers(planningService, logger),
		Recipes:   handlers.NewRecipeHandlers(recipeService, logger),
		Household: handlers.NewHouseholdHandlers(householdService, seeder, logger),
	}, metrics, health)
	return srv.Handler()
}

func (suite *ServerTestSuite) do(method, path string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(middleware.HouseholdHeader, home)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	return rec
}

func (suite *ServerTestSuite) weekPlan() []byte {
	return testutils.NewRawPlanBuilder(monday).
		WithBudget(120, 90).
		Meal(monday, "dinner", testutils.CatalogSlot("Greek Salad")).
		JSON()
}

func (suite *ServerTestSuite) reconcile() inbound.ReconcileOutcome {
	rec := suite.do(http.MethodPost, "/api/v1/plans/reconcile", suite.weekPlan())
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var body envelope[inbound.ReconcileOutcome]
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func errorCode(rec *httptest.ResponseRecorder) errors.ErrorCode {
	var body errors.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error.Code
}

func (suite *ServerTestSuite) TestPlans() {
	suite.Run("Reconcile_ShouldPublishPlan", func() {
		// Act
		outcome := suite.reconcile()

		// Assert
		suite.True(outcome.Persisted)
		suite.Equal(int64(1), outcome.Plan.Version)
		suite.Equal(1, outcome.Report.CatalogHits)

		rec := suite.do(http.MethodGet, "/api/v1/plans/current", nil)
		suite.Equal(http.StatusOK, rec.Code)
		var current envelope[inbound.PlanView]
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &current))
		suite.Equal(outcome.Plan.ID, current.Data.Plan.ID)
		plans := testutils.NewPlanAssertions(suite.T())
		plans.Consistent(&outcome)
		plans.Sorted(current.Data.Meals)
	})

	suite.Run("Malformed_ShouldAnswer422", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/reconcile", []byte(`[1,2,3]`))

		testutils.NewHTTPAssertions(suite.T()).ErrorResponse(rec, http.StatusUnprocessableEntity, errors.CodeMalformedInput)
	})

	suite.Run("InvalidHousehold_ShouldAnswer400", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/reconcile", suite.weekPlan(), middleware.HouseholdHeader, "not a household!")

		suite.Equal(http.StatusBadRequest, rec.Code)
		suite.Equal(errors.CodeValidationFailed, errorCode(rec))
	})

	suite.Run("NoPlan_ShouldAnswer404", func() {
		rec := suite.do(http.MethodGet, "/api/v1/plans/current?household=cabin", nil, middleware.HouseholdHeader, "")

		suite.Equal(http.StatusNotFound, rec.Code)
	})

	suite.Run("History_ShouldListArchivedPlans", func() {
		suite.SetupTest()
		suite.reconcile()
		second := testutils.NewRawPlanBuilder(monday).
			Meal(monday, "dinner", testutils.InlineSlot("Lentil Soup", "lentil")).
			JSON()
		suite.Require().Equal(http.StatusOK, suite.do(http.MethodPost, "/api/v1/plans/reconcile", second).Code)

		rec := suite.do(http.MethodGet, "/api/v1/plans/history", nil)

		suite.Equal(http.StatusOK, rec.Code)
		var body envelope[[]json.RawMessage]
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		suite.Len(body.Data, 1)
	})

	suite.Run("Generate_WithoutClient_ShouldAnswer502", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/generate", []byte(`{"baseSpecification":"quick dinners"}`))

		suite.Equal(http.StatusBadGateway, rec.Code)
		suite.Equal(errors.CodeExternalServiceError, errorCode(rec))
	})

	suite.Run("BuildRequest_ShouldDescribeHousehold", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/request", []byte(`{"baseSpecification":"quick dinners"}`))

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"baseSpecification":"quick dinners"`)
		suite.Contains(rec.Body.String(), `"Greek Salad"`)
	})

	suite.Run("InvalidBody_ShouldAnswer400", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/request", []byte(`{`))

		suite.Equal(http.StatusBadRequest, rec.Code)
		suite.Equal(errors.CodeBadRequest, errorCode(rec))
	})
}

func (suite *ServerTestSuite) TestStream() {
	frames := func(extra string) []byte {
		return []byte(fmt.Sprintf("{\"type\":\"progress\",\"progress\":40,\"message\":\"drafting\"}\n%s\n", extra))
	}
	complete := fmt.Sprintf(`{"type":"complete","data":%s}`, suite.weekPlan())

	suite.Run("EventStream_ShouldRelayProgressThenComplete", func() {
		suite.SetupTest()

		rec := suite.do(http.MethodPost, "/api/v1/plans/stream", frames(complete), "Accept", "text/event-stream")

		suite.Equal(http.StatusOK, rec.Code)
		suite.Equal("text/event-stream", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		suite.Contains(body, "event: progress\ndata: {\"progress\":40,\"message\":\"drafting\"}")
		suite.Contains(body, "event: complete")
		suite.Less(strings.Index(body, "event: progress"), strings.Index(body, "event: complete"))
	})

	suite.Run("ErrorFrame_ShouldAnswer502", func() {
		suite.SetupTest()

		rec := suite.do(http.MethodPost, "/api/v1/plans/stream", frames(`{"type":"error","error":"overloaded"}`))

		suite.Equal(http.StatusBadGateway, rec.Code)
		suite.Equal(errors.CodeStreamError, errorCode(rec))
		suite.Equal(http.StatusNotFound, suite.do(http.MethodGet, "/api/v1/plans/current", nil).Code)
	})

	suite.Run("ErrorFrame_EventStream_ShouldSendErrorEvent", func() {
		rec := suite.do(http.MethodPost, "/api/v1/plans/stream", frames(`{"type":"error","error":"overloaded"}`), "Accept", "text/event-stream")

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), "event: error")
		suite.Contains(rec.Body.String(), "STREAM_ERROR")
	})
}

func (suite *ServerTestSuite) TestRecipes() {
	outcome := suite.reconcile()
	suite.Require().NotEmpty(outcome.Recipes)
	id := outcome.Recipes[0].ID

	suite.Run("Favorite_ShouldPersist", func() {
		rec := suite.do(http.MethodPut, "/api/v1/recipes/"+id+"/favorite", []byte(`{"favorite":true}`))

		suite.Equal(http.StatusOK, rec.Code)
		var body envelope[recipe.Recipe]
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		suite.True(body.Data.User.Favorite)
	})

	suite.Run("RatingOutOfRange_ShouldAnswer400", func() {
		rec := suite.do(http.MethodPut, "/api/v1/recipes/"+id+"/rating", []byte(`{"rating":9}`))

		suite.Equal(http.StatusBadRequest, rec.Code)
	})

	suite.Run("Cooked_ShouldCount", func() {
		rec := suite.do(http.MethodPost, "/api/v1/recipes/"+id+"/cooked", nil)

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"timesCooked":1`)
	})

	suite.Run("UnknownRecipe_ShouldAnswer404", func() {
		rec := suite.do(http.MethodPost, "/api/v1/recipes/missing/cooked", nil)

		testutils.NewHTTPAssertions(suite.T()).ErrorResponse(rec, http.StatusNotFound, errors.CodeRecipeNotFound)
	})

	suite.Run("Score_ShouldAnswerScores", func() {
		rec := suite.do(http.MethodGet, "/api/v1/recipes/"+id+"/score", nil)

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"recipeId":"`+id+`"`)
	})

	suite.Run("ScoreIngredients_ShouldClassify", func() {
		rec := suite.do(http.MethodPost, "/api/v1/scores", []byte(`{"ingredients":[{"name":"spinach","quantity":100,"unit":"g"}]}`))

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"healthImpact":"protective"`)
	})
}

func (suite *ServerTestSuite) TestHousehold() {
	suite.Run("Groups_ShouldPartitionEaters", func() {
		rec := suite.do(http.MethodGet, "/api/v1/household/groups", nil)

		suite.Equal(http.StatusOK, rec.Code)
		var body envelope[inbound.GroupsView]
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		suite.Len(body.Data.Groups, 2)
		suite.True(body.Data.MultiRecipe)
	})

	suite.Run("SaveEaters_ShouldReplaceMembers", func() {
		rec := suite.do(http.MethodPut, "/api/v1/household/eaters", []byte(`[{"id":"riley","name":"Riley","portionMultiplier":0.5}]`))
		suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		rec = suite.do(http.MethodGet, "/api/v1/household/eaters", nil)
		var body envelope[household.Eaters]
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		suite.Require().Len(body.Data, 1)
		suite.Equal("riley", body.Data[0].ID)
	})

	suite.Run("InvalidSchedule_ShouldAnswer400", func() {
		rec := suite.do(http.MethodPut, "/api/v1/household/schedule", []byte(`{"funday":{}}`))

		suite.Equal(http.StatusBadRequest, rec.Code)
	})

	suite.Run("Profiles_ShouldList", func() {
		rec := suite.do(http.MethodGet, "/api/v1/profiles", nil)

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"vegan"`)
	})

	suite.Run("Seed_ShouldFillEmptyHousehold", func() {
		rec := suite.do(http.MethodPost, "/api/v1/seed", nil, middleware.HouseholdHeader, "fresh")

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"written"`)
	})
}

func (suite *ServerTestSuite) TestInfrastructure() {
	suite.Run("Health_ShouldAnswer200", func() {
		rec := suite.do(http.MethodGet, "/health", nil)

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `"healthy"`)
		testutils.NewHTTPAssertions(suite.T()).SecurityHeaders(rec.Header())
	})

	suite.Run("Metrics_ShouldExposeRequests", func() {
		suite.do(http.MethodGet, "/api/v1/profiles", nil)

		rec := suite.do(http.MethodGet, "/metrics", nil)

		suite.Equal(http.StatusOK, rec.Code)
		suite.Contains(rec.Body.String(), `dietcompass_http_requests_total{method="GET",path="/api/v1/profiles",status_code="200"}`)
	})

	suite.Run("RequestID_ShouldBeEchoed", func() {
		rec := suite.do(http.MethodGet, "/api/v1/profiles", nil, middleware.RequestIDHeader, "req-42")

		suite.Equal("req-42", rec.Header().Get(middleware.RequestIDHeader))
	})

	suite.Run("RequestID_ShouldBeMinted", func() {
		rec := suite.do(http.MethodGet, "/api/v1/profiles", nil)

		suite.Len(rec.Header().Get(middleware.RequestIDHeader), 36)
	})

	suite.Run("Preflight_ShouldAnswer204", func() {
		rec := suite.do(http.MethodOptions, "/api/v1/plans/reconcile", nil, "Origin", "http://localhost:3000")

		suite.Equal(http.StatusNoContent, rec.Code)
		suite.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	suite.Run("OversizedBody_ShouldAnswer413", func() {
		big := bytes.Repeat([]byte(" "), 5<<20)

		rec := suite.do(http.MethodPost, "/api/v1/plans/reconcile", big)

		suite.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func (suite *ServerTestSuite) TestRateLimit() {
	suite.Run("PlansOverLimit_ShouldAnswer429", func() {
		// Arrange
		suite.SetupTest()
		cfg := config.Default()
		cfg.Server.RateLimit = config.RateLimitConfig{RequestsPerMin: 1, Burst: 2}
		suite.handler = suite.newHandler(cfg)

		// Act
		first := suite.do(http.MethodGet, "/api/v1/plans/current", nil)
		second := suite.do(http.MethodGet, "/api/v1/plans/history", nil)
		limited := suite.do(http.MethodGet, "/api/v1/plans/current", nil)

		// Assert
		suite.Equal(http.StatusNotFound, first.Code)
		suite.NotEqual(http.StatusTooManyRequests, second.Code)
		testutils.NewHTTPAssertions(suite.T()).ErrorResponse(limited, http.StatusTooManyRequests, errors.CodeTooManyRequests)
		suite.NotEmpty(limited.Header().Get("Retry-After"))
	})

	suite.Run("OtherRoutes_ShouldNotBeLimited", func() {
		// Arrange
		suite.SetupTest()
		cfg := config.Default()
		cfg.Server.RateLimit = config.RateLimitConfig{RequestsPerMin: 1, Burst: 1}
		suite.handler = suite.newHandler(cfg)
		suite.do(http.MethodGet, "/api/v1/plans/current", nil)

		// Act
		rec := suite.do(http.MethodGet, "/api/v1/household/groups", nil)

		// Assert
		suite.Equal(http.StatusOK, rec.Code)
	})
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestServer_StartShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	srv := NewServer(cfg, zap.NewNop(), Handlers{}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}
}
