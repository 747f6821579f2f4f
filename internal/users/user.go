package users

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrWrongCredentials  = errors.New("wrong credentials")
	ErrInvalidUser       = errors.New("invalid user data")
	allowedGenderOptions = []string{"Masculino", "Femenino", "Otro"}
	TrainingGoals        = []string{
		"Perder Peso",
		"Ganar Músculo",
		"Mejorar Resistencia",
		"Fitness General",
		"Mejorar Fuerza",
	}
)

const (
	minDisplayNameLen = 2
	minPasswordLen    = 6
	minAge, maxAge    = 10, 120
	minHeightCm       = 50.0
	maxHeightCm       = 300.0
	minWeightKg       = 20.0
	maxWeightKg       = 300.0
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Age          int       `json:"age"`
	HeightCm     float64   `json:"heightCm"`
	WeightKg     float64   `json:"weightKg"`
	TrainingGoal string    `json:"trainingGoal"`
	Gender       string    `json:"gender,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SignupRequest struct {
	DisplayName     string  `json:"displayName"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirmPassword"`
	Age             int     `json:"age"`
	HeightCm        float64 `json:"heightCm"`
	WeightKg        float64 `json:"weightKg"`
	TrainingGoal    string  `json:"trainingGoal"`
	Gender          string  `json:"gender"`
}

func (r *SignupRequest) Normalize() {
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Email = normalizeEmail(r.Email)
	r.TrainingGoal = strings.TrimSpace(r.TrainingGoal)
	r.Gender = strings.TrimSpace(r.Gender)
}

func (r SignupRequest) Validate() error {
	if err := validateDisplayName(r.DisplayName); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrInvalidUser)
	}
	if len(r.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidUser, minPasswordLen)
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidUser)
	}
	if err := validateAge(r.Age); err != nil {
		return err
	}
	if err := validateHeight(r.HeightCm); err != nil {
		return err
	}
	if err := validateWeight(r.WeightKg); err != nil {
		return err
	}
	if err := validateTrainingGoal(r.TrainingGoal); err != nil {
		return err
	}
	return validateGender(r.Gender)
}

// ProfilePatch holds the editable profile fields; nil fields are left as they are.
type ProfilePatch struct {
	DisplayName  *string  `json:"displayName"`
	Age          *int     `json:"age"`
	HeightCm     *float64 `json:"heightCm"`
	WeightKg     *float64 `json:"weightKg"`
	TrainingGoal *string  `json:"trainingGoal"`
	Gender       *string  `json:"gender"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil && p.Age == nil && p.HeightCm == nil &&
		p.WeightKg == nil && p.TrainingGoal == nil && p.Gender == nil
}

func (p ProfilePatch) Validate() error {
	if p.DisplayName != nil {
		if err := validateDisplayName(strings.TrimSpace(*p.DisplayName)); err != nil {
			return err
		}
	}
	if p.Age != nil {
		if err := validateAge(*p.Age); err != nil {
			return err
		}
	}
	if p.HeightCm != nil {
		if err := validateHeight(*p.HeightCm); err != nil {
			return err
		}
	}
	if p.WeightKg != nil {
		if err := validateWeight(*p.WeightKg); err != nil {
			return err
		}
	}
	if p.TrainingGoal != nil {
		if err := validateTrainingGoal(strings.TrimSpace(*p.TrainingGoal)); err != nil {
			return err
		}
	}
	if p.Gender != nil {
		return validateGender(strings.TrimSpace(*p.Gender))
	}
	return nil
}

func (p ProfilePatch) ApplyTo(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.HeightCm != nil {
		u.HeightCm = *p.HeightCm
	}
	if p.WeightKg != nil {
		u.WeightKg = *p.WeightKg
	}
	if p.TrainingGoal != nil {
		u.TrainingGoal = strings.TrimSpace(*p.TrainingGoal)
	}
	if p.Gender != nil {
		u.Gender = strings.TrimSpace(*p.Gender)
	}
}

func validateDisplayName(name string) error {
	if len([]rune(name)) < minDisplayNameLen {
		return fmt.Errorf("%w: name must have at least %d characters", ErrInvalidUser, minDisplayNameLen)
	}
	return nil
}

func validateAge(age int) error {
	if age < minAge || age > maxAge {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidUser, minAge, maxAge)
	}
	return nil
}

func validateHeight(heightCm float64) error {
	if heightCm < minHeightCm || heightCm > maxHeightCm {
		return fmt.Errorf("%w: height must be between %.0f and %.0f cm", ErrInvalidUser, minHeightCm, maxHeightCm)
	}
	return nil
}

func validateWeight(weightKg float64) error {
	if weightKg < minWeightKg || weightKg > maxWeightKg {
		return fmt.Errorf("%w: weight must be between %.0f and %.0f kg", ErrInvalidUser, minWeightKg, maxWeightKg)
	}
	return nil
}

func validateTrainingGoal(goal string) error {
	if goal == "" {
		return fmt.Errorf("%w: training goal is required", ErrInvalidUser)
	}
	for _, g := range TrainingGoals {
		if g == goal {
			return nil
		}
	}
	return fmt.Errorf("%w: training goal must be one of %s", ErrInvalidUser, strings.Join(TrainingGoals, ", "))
}

func validateGender(gender string) error {
	if gender == "" {
		return nil
	}
	for _, g := range allowedGenderOptions {
		if g == gender {
			return nil
		}
	}
	return fmt.Errorf("%w: gender must be one of %s", ErrInvalidUser, strings.Join(allowedGenderOptions, ", "))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
