package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"gatherapp/internal/delivery/http/helpers"
	"gatherapp/internal/delivery/http/middleware"
	"gatherapp/internal/domain"
)

// EventsResponse is the success envelope for unpaginated event lists.
type EventsResponse struct {
	Status string          `json:"status"`
	Events []*domain.Event `json:"events"`
}

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewAttendeeController(logger *slog.Logger, svc domain.EventService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register for an event
// @Description Registers the authenticated user as an attendee. Fails when already registered or the event is at capacity.
// @Tags attendance
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventResponse "event with refreshed counts"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 409 {object} helpers.ErrorResponse "already registered or capacity reached"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/register [post]
func (c *AttendeeController) Register(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.Service.Register)
}

// Unregister godoc
// @Summary Unregister from an event
// @Description Removes the authenticated user from the attendee list. Fails when not registered.
// @Tags attendance
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventResponse "event with refreshed counts"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 409 {object} helpers.ErrorResponse "not registered"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/unregister [post]
func (c *AttendeeController) Unregister(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.Service.Unregister)
}

// ListRegistered godoc
// @Summary List events the current user registered for
// @Tags attendance
// @Produce json
// @Success 200 {object} controllers.EventsResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/user/registered [get]
func (c *AttendeeController) ListRegistered(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	events, err := c.Service.ListRegistered(r.Context(), userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventsResponse{Status: helpers.StatusSuccess, Events: events})
}

func (c *AttendeeController) mutate(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, eventID, userID string) (*domain.Event, error)) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	event, err := op(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventResponse{Status: helpers.StatusSuccess, Event: event})
}
