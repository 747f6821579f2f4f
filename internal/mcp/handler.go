package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/2beens/fittrack/internal/progress"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// DashboardInput is the input for get_dashboard.
type DashboardInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"lifted_weight (default) or calories_burned"`
}

func (h *Handler) GetDashboardTool() func(context.Context, *mcp.CallToolRequest, DashboardInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in DashboardInput) (*mcp.CallToolResult, any, error) {
		metric := progress.Metric(strings.TrimSpace(in.Metric))
		if metric == "" {
			metric = progress.MetricLiftedWeight
		}
		if !metric.IsValid() {
			return errorResult("Invalid metric: use lifted_weight or calories_burned"), nil, nil
		}

		summary, err := h.service.Dashboard(ctx, metric)
		if err != nil {
			return errorResult("Error loading dashboard: " + err.Error()), nil, nil
		}
		return jsonResult(summary), nil, nil
	}
}

// WorkoutsRangeInput is the input for list_workouts.
type WorkoutsRangeInput struct {
	FromDate string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD), inclusive"`
	ToDate   string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
}

func (h *Handler) ListWorkoutsTool() func(context.Context, *mcp.CallToolRequest, WorkoutsRangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WorkoutsRangeInput) (*mcp.CallToolResult, any, error) {
		if in.FromDate != "" {
			if _, err := workouts.ParseDate(in.FromDate); err != nil {
				return errorResult("Invalid from_date: use YYYY-MM-DD"), nil, nil
			}
		}
		if in.ToDate != "" {
			if _, err := workouts.ParseDate(in.ToDate); err != nil {
				return errorResult("Invalid to_date: use YYYY-MM-DD"), nil, nil
			}
		}

		list, err := h.service.ListWorkouts(ctx, in.FromDate, in.ToDate)
		if err != nil {
			return errorResult("Error listing workouts: " + err.Error()), nil, nil
		}
		if list == nil {
			list = []workouts.Workout{}
		}
		return jsonResult(list), nil, nil
	}
}

// ExerciseNameInput is the input for classify_exercise.
type ExerciseNameInput struct {
	Name string `json:"name" jsonschema:"Exercise name, e.g. Press de banca"`
}

func (h *Handler) ClassifyExerciseTool() func(context.Context, *mcp.CallToolRequest, ExerciseNameInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in ExerciseNameInput) (*mcp.CallToolResult, any, error) {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return errorResult("Exercise name is required"), nil, nil
		}
		return jsonResult(Classify(name)), nil, nil
	}
}

// EstimateCaloriesInput is the input for estimate_calories.
type EstimateCaloriesInput struct {
	Name            string  `json:"name" jsonschema:"Exercise name"`
	DurationMinutes float64 `json:"duration_minutes,omitempty" jsonschema:"Duration in minutes, defaults to 45"`
	BodyWeightKg    float64 `json:"body_weight_kg,omitempty" jsonschema:"Body weight in kg, defaults to the profile weight"`
}

func (h *Handler) EstimateCaloriesTool() func(context.Context, *mcp.CallToolRequest, EstimateCaloriesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in EstimateCaloriesInput) (*mcp.CallToolResult, any, error) {
		estimate, err := h.service.EstimateCalories(ctx, in.Name, in.DurationMinutes, in.BodyWeightKg)
		if err != nil {
			return errorResult("Error estimating calories: " + err.Error()), nil, nil
		}
		return jsonResult(estimate), nil, nil
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}
