// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/pkg/errors"
)

// PlanAssertions provides meal plan assertion methods
type PlanAssertions struct {
	t *testing.T
}

// NewPlanAssertions creates a new plan assertions helper
func NewPlanAssertions(t *testing.T) *PlanAssertions {
	return &PlanAssertions{t: t}
}

// Consistent asserts that an outcome references only what it carries: the
// plan lists exactly its meals, every meal points at a returned recipe and
// ids are well-formed.
func (pa *PlanAssertions) Consistent(outcome *inbound.ReconcileOutcome) {
	pa.t.Helper()
	require.NotNil(pa.t, outcome, "Outcome should not be nil")

	_, err := uuid.Parse(outcome.Plan.ID)
	assert.NoError(pa.t, err, "Plan should have a valid ID")

	recipes := make(map[string]bool, len(outcome.Recipes))
	for _, r := range outcome.Recipes {
		recipes[r.ID] = true
	}

	mealIDs := make([]string, 0, len(outcome.Meals))
	for _, m := range outcome.Meals {
		mealIDs = append(mealIDs, m.ID)
		assert.True(pa.t, recipes[m.RecipeID], "Meal %s points at missing recipe %s", m.ID, m.RecipeID)
	}
	assert.ElementsMatch(pa.t, outcome.Plan.MealIDs, mealIDs, "Plan should list exactly its meals")
}

// Sorted asserts meals are ordered by date, meal type and slot
func (pa *PlanAssertions) Sorted(meals []mealplan.Meal) {
	pa.t.Helper()
	sorted := make([]mealplan.Meal, len(meals))
	copy(sorted, meals)
	mealplan.SortMeals(sorted)
	assert.Equal(pa.t, sorted, meals, "Meals should be sorted")
}

// HasWarning asserts that the outcome recorded a warning with the code
func (pa *PlanAssertions) HasWarning(outcome *inbound.ReconcileOutcome, code errors.ErrorCode) {
	pa.t.Helper()
	assert.Positive(pa.t, outcome.Report.Warnings.Count(code), "Expected a %s warning", code)
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSONResponse asserts that the response is JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, target interface{}) {
	ha.t.Helper()
	contentType := rec.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)
	require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), target), "Response should be valid JSON")
}

// ErrorResponse asserts the status and error code of a failed request
func (ha *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, status int, code errors.ErrorCode) {
	ha.t.Helper()
	assert.Equal(ha.t, status, rec.Code, rec.Body.String())

	var body errors.ErrorResponse
	ha.JSONResponse(rec, &body)
	assert.Equal(ha.t, code, body.Error.Code)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(header http.Header) {
	ha.t.Helper()
	for _, name := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Content-Security-Policy",
	} {
		assert.NotEmpty(ha.t, header.Get(name), "Security header %s should be present", name)
	}
}
