package exercise

import (
	"math"
	"regexp"
	"strconv"
)

const (
	DefaultBodyWeightKg    = 70.0
	DefaultDurationMinutes = 45.0
	DefaultDurationLabel   = "45 min"
)

// METTable holds the metabolic equivalent used for each muscle group.
var METTable = map[MuscleGroup]float64{
	MuscleGroupArms:      3.5,
	MuscleGroupBack:      5.0,
	MuscleGroupChest:     5.0,
	MuscleGroupLegs:      5.0,
	MuscleGroupShoulders: 4.0,
	MuscleGroupCore:      3.8,
	MuscleGroupCardio:    7.0,
	MuscleGroupGlutes:    4.5,
	MuscleGroupOther:     3.5,
}

func MET(group MuscleGroup) float64 {
	if met, ok := METTable[group]; ok {
		return met
	}
	return METTable[MuscleGroupOther]
}

// EstimateCalories returns the kcal spent on an exercise using the MET formula
// met * kg * 3.5 / 200 per minute. Non-positive durations and body weights fall
// back to the defaults instead of failing.
func EstimateCalories(exerciseName string, durationMinutes, bodyWeightKg float64) int {
	met := MET(Classify(exerciseName))

	weight := bodyWeightKg
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		weight = DefaultBodyWeightKg
	}

	duration := durationMinutes
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = DefaultDurationMinutes
	}

	caloriesPerMinute := met * weight * 3.5 / 200
	return int(math.Round(caloriesPerMinute * duration))
}

var leadingIntRegex = regexp.MustCompile(`^\s*(\d+)`)

// DurationMinutes reads the leading integer of a duration label like "45 min".
// Labels without a positive leading integer yield DefaultDurationMinutes.
func DurationMinutes(label string) float64 {
	match := leadingIntRegex.FindStringSubmatch(label)
	if match == nil {
		return DefaultDurationMinutes
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil || minutes <= 0 {
		return DefaultDurationMinutes
	}
	return float64(minutes)
}
