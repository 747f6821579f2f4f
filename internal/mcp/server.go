package mcp

import (
	"net/http"

	"github.com/2beens/fittrack/internal/auth"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
)

type ServerDeps struct {
	Dashboard dashboardReader
	Workouts  workoutsLister
	Profiles  profileReader
}

// NewServer builds an MCP server with the fittrack tools bound to one owner:
// dashboard, workouts list, exercise classification and calorie estimation.
func NewServer(ownerID string, deps ServerDeps) *mcp.Server {
	svc := NewContextService(ownerID, deps.Dashboard, deps.Workouts, deps.Profiles)
	h := NewHandler(svc)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "fittrack-workouts",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Returns the weekly progress summary: last 7 ISO weeks of the metric, active days, grand total and days since the last workout. Arg: metric (lifted_weight or calories_burned).",
	}, h.GetDashboardTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_workouts",
		Description: "Returns logged workouts, newest first. Optional args: from_date, to_date (YYYY-MM-DD, inclusive).",
	}, h.ListWorkoutsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "classify_exercise",
		Description: "Returns the muscle group and MET value the tracker assigns to an exercise name (Spanish or English keywords).",
	}, h.ClassifyExerciseTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "estimate_calories",
		Description: "Estimates kcal burned for an exercise. Args: name; optional: duration_minutes (default 45), body_weight_kg (default profile weight or 70).",
	}, h.EstimateCaloriesTool())

	return s
}

// NewHTTPHandler serves the tools over streamable HTTP. It must sit behind the
// auth middleware: every session is bound to the owner of the request that
// opened it.
func NewHTTPHandler(deps ServerDeps) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		ownerID, ok := auth.OwnerIDFromContext(r.Context())
		if !ok {
			log.Warnf("mcp: request without owner from %s", r.RemoteAddr)
			return nil
		}
		return NewServer(ownerID, deps)
	}, nil)
}
