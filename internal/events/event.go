package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeWorkoutLogged  EventType = "workout_logged"
	EventTypeWorkoutUpdated EventType = "workout_updated"
	EventTypeWeightReport   EventType = "weight_report"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeWorkoutLogged, EventTypeWorkoutUpdated, EventTypeWeightReport:
		return true
	default:
		return false
	}
}

// Event is emitted after a user visible state change, such as a new workout
// or a new body weight on the profile.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	OwnerID   string            `json:"ownerId"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

func newEvent(eventType EventType, ownerID string, data map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OwnerID:   ownerID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewWorkoutLoggedEvent(ownerID, workoutID, exerciseName, muscleGroup, date string) Event {
	return newEvent(EventTypeWorkoutLogged, ownerID, map[string]string{
		"workoutId":    workoutID,
		"exerciseName": exerciseName,
		"muscleGroup":  muscleGroup,
		"date":         date,
	})
}

func NewWorkoutUpdatedEvent(ownerID, workoutID string, caloriesBurned int) Event {
	return newEvent(EventTypeWorkoutUpdated, ownerID, map[string]string{
		"workoutId":      workoutID,
		"caloriesBurned": strconv.Itoa(caloriesBurned),
	})
}

func NewWeightReportEvent(ownerID string, weightKg float64) Event {
	return newEvent(EventTypeWeightReport, ownerID, map[string]string{
		"weight": fmt.Sprintf("%.1f", weightKg),
	})
}
