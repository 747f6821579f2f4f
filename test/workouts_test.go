package test

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fittrack/internal/progress"
	"github.com/2beens/fittrack/internal/users"
	"github.com/2beens/fittrack/internal/workouts"
)

func ptr[T any](v T) *T {
	return &v
}

func (s *IntegrationTestSuite) TestWorkoutsLifecycle() {
	ctx := context.Background()
	t := s.T()

	token := doSignup(ctx, t, newSignupRequest()).Token
	today := time.Now().UTC().Format(workouts.DateLayout)

	resp := doJSONRequest(ctx, t, http.MethodPost, "/workouts", token, workouts.Workout{
		Date:         today,
		ExerciseName: "Sentadilla",
		WeightKg:     ptr(100.0),
		Reps:         ptr(5),
		Sets:         ptr(3),
		Duration:     "30 min",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var added workouts.Workout
	decodeBody(t, resp, &added)
	s.NoError(resp.Body.Close())
	s.NotEmpty(added.ID)
	s.Equal(today, added.Date)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(workouts.DateLayout)
	resp = doJSONRequest(ctx, t, http.MethodPost, "/workouts", token, workouts.Workout{
		Date:         tomorrow,
		ExerciseName: "Curl de biceps",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.NoError(resp.Body.Close())

	resp = doJSONRequest(ctx, t, http.MethodGet, "/workouts/"+added.ID, token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var fetched workouts.Workout
	decodeBody(t, resp, &fetched)
	s.NoError(resp.Body.Close())
	s.Equal(added.ID, fetched.ID)
	s.Equal("Sentadilla", fetched.ExerciseName)

	resp = doJSONRequest(ctx, t, http.MethodPut, "/workouts/"+added.ID, token, workouts.Patch{
		Reps: ptr(8),
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var updated workouts.Workout
	decodeBody(t, resp, &updated)
	s.NoError(resp.Body.Close())
	s.Require().NotNil(updated.Reps)
	s.Equal(8, *updated.Reps)
	s.NotNil(updated.CaloriesBurned)

	resp = doJSONRequest(ctx, t, http.MethodGet, fmt.Sprintf("/workouts?from=%s&to=%s", today, today), token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var list workouts.ListResponse
	decodeBody(t, resp, &list)
	s.NoError(resp.Body.Close())
	s.Equal(1, list.Total)

	resp = doJSONRequest(ctx, t, http.MethodGet, "/dashboard?metric=lifted_weight", token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var dashboard progress.DashboardResponse
	decodeBody(t, resp, &dashboard)
	s.NoError(resp.Body.Close())
	s.Empty(dashboard.LoadError)
	s.InDelta(100.0*8*3, dashboard.GrandTotal, 0.001)
	s.Equal([]string{today}, dashboard.ActiveDays)
	s.Require().NotNil(dashboard.LastActivityGapDays)
	s.Equal(0, *dashboard.LastActivityGapDays)
	s.False(dashboard.NeedsMotivation)

	resp = doJSONRequest(ctx, t, http.MethodGet, "/profile", token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var profile users.ProfileResponse
	decodeBody(t, resp, &profile)
	s.NoError(resp.Body.Close())
	s.Require().NotNil(profile.TotalWorkouts)
	s.Equal(1, *profile.TotalWorkouts)
}

func (s *IntegrationTestSuite) TestWorkoutsAreOwnerScoped() {
	ctx := context.Background()
	t := s.T()

	ownerToken := doSignup(ctx, t, newSignupRequest()).Token
	otherToken := doSignup(ctx, t, newSignupRequest()).Token

	resp := doJSONRequest(ctx, t, http.MethodPost, "/workouts", ownerToken, workouts.Workout{
		Date:         time.Now().UTC().Format(workouts.DateLayout),
		ExerciseName: "Press de banca",
		WeightKg:     ptr(60.0),
		Reps:         ptr(10),
		Sets:         ptr(4),
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var added workouts.Workout
	decodeBody(t, resp, &added)
	s.NoError(resp.Body.Close())

	resp = doJSONRequest(ctx, t, http.MethodGet, "/workouts/"+added.ID, otherToken, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.NoError(resp.Body.Close())

	resp = doJSONRequest(ctx, t, http.MethodGet, "/dashboard", otherToken, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var dashboard progress.DashboardResponse
	decodeBody(t, resp, &dashboard)
	s.NoError(resp.Body.Close())
	s.Zero(dashboard.GrandTotal)
	s.Nil(dashboard.LastActivityGapDays)
}
