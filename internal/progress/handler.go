package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/exercise"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=progress_test

type dashboardService interface {
	Dashboard(ctx context.Context, ownerID string, metric Metric) (*Summary, error)
}

type DashboardResponse struct {
	*Summary
	LoadError string `json:"loadError,omitempty"`
}

type ExerciseGroup struct {
	Name  string               `json:"name,omitempty"`
	Group exercise.MuscleGroup `json:"group"`
	MET   float64              `json:"met"`
}

type Handler struct {
	service dashboardService
}

func NewHandler(service dashboardService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	r.HandleFunc("/exercises/classify", handler.HandleClassify).Methods("GET", "OPTIONS").Name("classify-exercise")
	r.HandleFunc("/exercises/groups", handler.HandleGroups).Methods("GET", "OPTIONS").Name("muscle-groups")
}

// HandleDashboard always answers 200 for a known metric. A failed load is
// reported in loadError next to an empty summary.
func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.dashboard")
	defer span.End()

	ownerID, ok := auth.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	metric := Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = MetricLiftedWeight
	}
	if !metric.IsValid() {
		http.Error(w, "error, unknown metric", http.StatusBadRequest)
		return
	}

	resp := DashboardResponse{}
	summary, err := handler.service.Dashboard(ctx, ownerID, metric)
	if err != nil {
		log.Errorf("dashboard for %s [%s]: %s", ownerID, metric, err)
		resp.LoadError = "could not load your workouts, please try again later"
	}
	if summary == nil {
		summary = EmptySummary(metric)
	}
	resp.Summary = summary

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal dashboard: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	group := exercise.Classify(name)
	respJson, err := json.Marshal(ExerciseGroup{
		Name:  name,
		Group: group,
		MET:   exercise.MET(group),
	})
	if err != nil {
		log.Errorf("marshal classify response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleGroups(w http.ResponseWriter, _ *http.Request) {
	groups := make([]ExerciseGroup, 0, len(exercise.MuscleGroups()))
	for _, group := range exercise.MuscleGroups() {
		groups = append(groups, ExerciseGroup{
			Group: group,
			MET:   exercise.MET(group),
		})
	}

	respJson, err := json.Marshal(groups)
	if err != nil {
		log.Errorf("marshal muscle groups: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
