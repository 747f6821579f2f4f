package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/fittrack/internal/cache"
	"github.com/2beens/fittrack/internal/exercise"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/workouts"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=progress_test

const dashboardKeyPrefix = "dashboard||"

type workoutsLister interface {
	List(ctx context.Context, params workouts.ListParams) ([]workouts.Workout, error)
}

type profileReader interface {
	BodyWeightKg(ctx context.Context, ownerID string) (float64, error)
}

type Service struct {
	lister         workoutsLister
	profiles       profileReader
	cache          cache.Cache
	metricsManager *metrics.Manager
	location       *time.Location
	now            func() time.Time

	// versionsMu guards versions and orders cache writes against invalidations.
	versionsMu sync.Mutex
	// versions counts invalidations per owner; a summary is cached only if
	// the owner's version did not move while it was being computed.
	versions map[string]uint64
}

type NewServiceParams struct {
	Lister         workoutsLister
	Profiles       profileReader
	Cache          cache.Cache
	MetricsManager *metrics.Manager
	Location       *time.Location
	Now            func() time.Time
}

func NewService(params NewServiceParams) *Service {
	s := &Service{
		lister:         params.Lister,
		profiles:       params.Profiles,
		cache:          params.Cache,
		metricsManager: params.MetricsManager,
		location:       params.Location,
		now:            params.Now,
		versions:       make(map[string]uint64),
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

// Dashboard aggregates all workouts of the owner. When the workouts cannot be
// loaded it returns an empty summary together with the error, so callers can
// still render something.
func (s *Service) Dashboard(ctx context.Context, ownerID string, metric Metric) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("owner.id", ownerID),
		attribute.String("metric", string(metric)),
	)

	if !metric.IsValid() {
		return EmptySummary(metric), fmt.Errorf("unknown metric: %s", metric)
	}

	today := s.today()
	key := dashboardKey(ownerID, metric, today)
	if summary, ok := s.cached(key); ok {
		s.countCache("hit")
		return summary, nil
	}
	s.countCache("miss")

	version := s.version(ownerID)
	records, err := s.lister.List(ctx, workouts.ListParams{OwnerID: ownerID})
	if err != nil {
		return EmptySummary(metric), fmt.Errorf("load workouts: %w", err)
	}

	summary := Aggregate(records, metric, Options{
		Today:        today,
		BodyWeightKg: s.bodyWeightKg(ctx, ownerID),
	})
	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("records.skipped", summary.SkippedRecords),
	)
	if s.metricsManager != nil && summary.SkippedRecords > 0 {
		s.metricsManager.CounterSkippedRecords.Add(float64(summary.SkippedRecords))
	}

	s.storeIfCurrent(key, ownerID, version, summary)
	return summary, nil
}

// Invalidate drops today's cached dashboards of the owner. Dashboards being
// computed concurrently from older data will not be cached.
func (s *Service) Invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	today := s.today()
	keys := make([]string, 0, len(Metrics()))
	for _, metric := range Metrics() {
		keys = append(keys, dashboardKey(ownerID, metric, today))
	}

	s.versionsMu.Lock()
	defer s.versionsMu.Unlock()
	s.versions[ownerID]++
	s.cache.Delete(keys...)
}

func (s *Service) version(ownerID string) uint64 {
	s.versionsMu.Lock()
	defer s.versionsMu.Unlock()
	return s.versions[ownerID]
}

func (s *Service) bodyWeightKg(ctx context.Context, ownerID string) float64 {
	if s.profiles == nil {
		return exercise.DefaultBodyWeightKg
	}
	weight, err := s.profiles.BodyWeightKg(ctx, ownerID)
	if err != nil {
		log.Warnf("progress: body weight of %s not available, using default: %s", ownerID, err)
		return exercise.DefaultBodyWeightKg
	}
	return weight
}

func (s *Service) cached(key string) (*Summary, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var summary Summary
	if err := json.Unmarshal(b, &summary); err != nil {
		log.Errorf("progress: corrupted cache entry %s: %s", key, err)
		s.cache.Delete(key)
		return nil, false
	}
	return &summary, true
}

func (s *Service) storeIfCurrent(key, ownerID string, version uint64, summary *Summary) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("progress: marshal summary: %s", err)
		return
	}

	s.versionsMu.Lock()
	defer s.versionsMu.Unlock()
	if s.versions[ownerID] != version {
		log.Tracef("progress: dashboard of %s invalidated while loading, not cached", ownerID)
		return
	}
	if err := s.cache.Set(key, b); err != nil {
		log.Warnf("progress: cache summary %s: %s", key, err)
	}
}

func (s *Service) countCache(result string) {
	if s.metricsManager != nil {
		s.metricsManager.CounterDashboardCache.WithLabelValues(result).Inc()
	}
}

func dashboardKey(ownerID string, metric Metric, today time.Time) string {
	return dashboardKeyPrefix + ownerID + "||" + string(metric) + "||" + today.Format(workouts.DateLayout)
}
