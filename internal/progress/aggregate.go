package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/2beens/fittrack/internal/exercise"
	"github.com/2beens/fittrack/internal/workouts"

	log "github.com/sirupsen/logrus"
)

const (
	SeriesLength = 7
	// MotivationGapDays is the number of idle days after which the user is
	// nudged to train again.
	MotivationGapDays = 3
)

type Metric string

const (
	MetricLiftedWeight   Metric = "lifted_weight"
	MetricCaloriesBurned Metric = "calories_burned"
)

func (m Metric) IsValid() bool {
	return m == MetricLiftedWeight || m == MetricCaloriesBurned
}

func Metrics() []Metric {
	return []Metric{MetricLiftedWeight, MetricCaloriesBurned}
}

// ChartPoint is one weekly bar of the progress chart. The label is
// positional (W1 is the oldest shown week), not the ISO week number.
type ChartPoint struct {
	Label string  `json:"week"`
	Value float64 `json:"value"`
}

type Summary struct {
	Metric              Metric       `json:"metric"`
	Series              []ChartPoint `json:"series"`
	ActiveDays          []string     `json:"activeDays"`
	GrandTotal          float64      `json:"grandTotal"`
	LastActivityGapDays *int         `json:"lastActivityGapDays"`
	NeedsMotivation     bool         `json:"needsMotivation"`
	SkippedRecords      int          `json:"skippedRecords"`
}

// EmptySummary is the all-zero summary shown when there is nothing to
// aggregate or the records could not be loaded.
func EmptySummary(metric Metric) *Summary {
	return &Summary{
		Metric:     metric,
		Series:     padSeries(nil),
		ActiveDays: []string{},
	}
}

type Options struct {
	// Today is the current moment in the user's timezone; only its calendar
	// day is used.
	Today time.Time
	// BodyWeightKg is used to estimate calories of records that have none
	// stored. Non-positive means the default weight.
	BodyWeightKg float64
}

type contribution struct {
	date  time.Time
	id    string
	value float64
}

// Aggregate folds the records of one owner into weekly totals of the given
// metric. Records with an unparseable date are skipped. The result does not
// depend on the order of records.
func Aggregate(records []workouts.Workout, metric Metric, opts Options) *Summary {
	summary := EmptySummary(metric)

	contributions := make([]contribution, 0, len(records))
	for _, record := range records {
		date, err := workouts.ParseDate(record.Date)
		if err != nil {
			log.Warnf("progress: skipping workout %s with bad date %q: %s", record.ID, record.Date, err)
			summary.SkippedRecords++
			continue
		}
		contributions = append(contributions, contribution{
			date:  date,
			id:    record.ID,
			value: contributionOf(record, metric, opts.BodyWeightKg),
		})
	}

	if len(contributions) == 0 {
		return summary
	}

	// equal dates are ordered by value and id so float sums are reproducible
	sort.Slice(contributions, func(i, j int) bool {
		a, b := contributions[i], contributions[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if a.value != b.value {
			return a.value < b.value
		}
		return a.id < b.id
	})

	buckets := make(map[string]float64)
	days := make(map[string]struct{})
	for _, c := range contributions {
		summary.GrandTotal += c.value
		buckets[WeekKey(c.date)] += c.value
		days[c.date.Format(workouts.DateLayout)] = struct{}{}
	}

	summary.Series = weeklySeries(buckets)

	summary.ActiveDays = make([]string, 0, len(days))
	for day := range days {
		summary.ActiveDays = append(summary.ActiveDays, day)
	}
	sort.Strings(summary.ActiveDays)

	latest := contributions[len(contributions)-1].date
	gap := DaysBetween(latest, opts.Today)
	summary.LastActivityGapDays = &gap
	summary.NeedsMotivation = gap >= MotivationGapDays

	return summary
}

func contributionOf(record workouts.Workout, metric Metric, bodyWeightKg float64) float64 {
	switch metric {
	case MetricCaloriesBurned:
		if record.CaloriesBurned != nil {
			return float64(*record.CaloriesBurned)
		}
		return float64(exercise.EstimateCalories(
			record.ExerciseName,
			exercise.DurationMinutes(record.Duration),
			bodyWeightKg,
		))
	default:
		if record.WeightKg == nil || record.Reps == nil || record.Sets == nil {
			return 0
		}
		return *record.WeightKg * float64(*record.Reps) * float64(*record.Sets)
	}
}

// WeekKey returns the ISO-8601 week of t as "YYYY-Www". Keys sort
// chronologically.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func weeklySeries(buckets map[string]float64) []ChartPoint {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if len(keys) > SeriesLength {
		keys = keys[len(keys)-SeriesLength:]
	}

	series := make([]ChartPoint, 0, SeriesLength)
	for i, key := range keys {
		series = append(series, ChartPoint{
			Label: weekLabel(i),
			Value: buckets[key],
		})
	}
	return padSeries(series)
}

// padSeries extends the series with zero weeks up to SeriesLength points and
// truncates anything beyond.
func padSeries(series []ChartPoint) []ChartPoint {
	for len(series) < SeriesLength {
		series = append(series, ChartPoint{
			Label: weekLabel(len(series)),
		})
	}
	return series[:SeriesLength]
}

func weekLabel(i int) string {
	return fmt.Sprintf("W%d", i+1)
}

// DaysBetween returns the number of calendar days from the day of from to
// the day of to. Each value is taken as a calendar day in its own location.
func DaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
