package advice

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptTemplateText string

var promptTemplate = template.Must(template.New("advice").Parse(promptTemplateText))

// RenderPrompt builds the model prompt for the request. The goal must be set.
func RenderPrompt(req Request) (string, error) {
	req.TrainingGoal = strings.TrimSpace(req.TrainingGoal)
	req.CurrentRoutineDetails = strings.TrimSpace(req.CurrentRoutineDetails)
	if req.TrainingGoal == "" {
		return "", ErrMissingGoal
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("render advice prompt: %w", err)
	}
	return sb.String(), nil
}
