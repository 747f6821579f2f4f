package advice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=advice_test

type adviceService interface {
	Advise(ctx context.Context, ownerID string, req Request) (*Response, error)
}

type Handler struct {
	service adviceService
}

func NewHandler(service adviceService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(r *mux.Router, mw ...mux.MiddlewareFunc) {
	var h http.Handler = http.HandlerFunc(handler.HandleAdvice)
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	r.Handle("/advice", h).Methods("POST", "OPTIONS").Name("advice")
}

func (handler *Handler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.advice")
	defer span.End()

	ownerID, ok := auth.OwnerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		writeError(w, "invalid content type", false, http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("advice, unmarshal json params: %s", err)
		writeError(w, "invalid advice request", false, http.StatusBadRequest)
		return
	}

	resp, err := handler.service.Advise(ctx, ownerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingGoal):
			writeError(w, err.Error(), false, http.StatusBadRequest)
		case errors.Is(err, ErrModelTimeout):
			log.Errorf("advice for %s timed out: %s", ownerID, err)
			writeError(w, "the advisor took too long to answer, please try again", true, http.StatusGatewayTimeout)
		default:
			log.Errorf("advice for %s failed: %s", ownerID, err)
			writeError(w, "the advisor could not generate advice right now, please try again", true, http.StatusBadGateway)
		}
		return
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal advice: %s", err)
		writeError(w, "internal error", true, http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func writeError(w http.ResponseWriter, message string, retryable bool, status int) {
	b, err := json.Marshal(ErrorResponse{
		Error:     message,
		Retryable: retryable,
	})
	if err != nil {
		http.Error(w, message, status)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, b, status)
}
