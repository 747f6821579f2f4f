package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=advice_test

const DefaultTimeout = 30 * time.Second

type modelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type goalReader interface {
	TrainingGoal(ctx context.Context, ownerID string) (string, error)
}

type Service struct {
	model          modelClient
	goals          goalReader
	timeout        time.Duration
	metricsManager *metrics.Manager
}

func NewService(model modelClient, goals goalReader, timeout time.Duration, metricsManager *metrics.Manager) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		model:          model,
		goals:          goals,
		timeout:        timeout,
		metricsManager: metricsManager,
	}
}

// Advise asks the model for training advice. A request without a goal uses
// the goal from the owner's profile. Failures are not retried.
func (s *Service) Advise(ctx context.Context, ownerID string, req Request) (_ *Response, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.advice.advise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner.id", ownerID))

	if strings.TrimSpace(req.TrainingGoal) == "" {
		req.TrainingGoal = s.profileGoal(ctx, ownerID)
	}
	prompt, err := RenderPrompt(req)
	if err != nil {
		return nil, err
	}

	if s.model == nil {
		s.count("error")
		return nil, fmt.Errorf("%w: model not configured", ErrModelFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.model.Generate(ctx, prompt)
	if s.metricsManager != nil {
		s.metricsManager.HistogramAdviceDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.count("timeout")
			return nil, fmt.Errorf("%w: %w", ErrModelTimeout, err)
		}
		s.count("error")
		return nil, fmt.Errorf("%w: %w", ErrModelFailed, err)
	}

	advice, err := decodeAdvice(text)
	if err != nil {
		log.Warnf("advice: unusable model output for %s: %s", ownerID, err)
		s.count("empty")
		return nil, ErrEmptyAdvice
	}

	s.count("ok")
	return &Response{Advice: advice}, nil
}

func (s *Service) profileGoal(ctx context.Context, ownerID string) string {
	if s.goals == nil {
		return ""
	}
	goal, err := s.goals.TrainingGoal(ctx, ownerID)
	if err != nil {
		log.Warnf("advice: training goal of %s not available: %s", ownerID, err)
		return ""
	}
	return goal
}

func (s *Service) count(status string) {
	if s.metricsManager != nil {
		s.metricsManager.CounterAdviceRequests.WithLabelValues(status).Inc()
	}
}

func decodeAdvice(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty output")
	}

	var resp Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return "", fmt.Errorf("decode output: %w", err)
	}

	advice := strings.TrimSpace(resp.Advice)
	if advice == "" {
		return "", errors.New("empty advice field")
	}
	return advice, nil
}
