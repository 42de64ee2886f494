package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatherapp/internal/delivery/http/helpers"
	"gatherapp/internal/delivery/http/middleware"
	"gatherapp/internal/domain"
)

// AddReviewRequest is the request body for POST /events/{eventID}/reviews.
type AddReviewRequest struct {
	Text string `json:"text"`
}

// Validate implements Validator.
func (a AddReviewRequest) Validate() []string {
	if strings.TrimSpace(a.Text) == "" {
		return []string{"text is required"}
	}
	return nil
}

// ReviewResponse is the success envelope for a created review.
type ReviewResponse struct {
	Status string         `json:"status"`
	Review *domain.Review `json:"review"`
}

// ReviewListResponse is the success envelope for GET /events/{eventID}/reviews.
type ReviewListResponse struct {
	Status  string           `json:"status"`
	Reviews []*domain.Review `json:"reviews"`
}

// EngagementController handles likes and reviews.
type EngagementController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEngagementController(logger *slog.Logger, svc domain.EventService) *EngagementController {
	return &EngagementController{
		Logger:  logger,
		Service: svc,
	}
}

// Like godoc
// @Summary Like an event
// @Description Adds the authenticated user to the event's like set. Liking twice is a no-op.
// @Tags engagement
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventResponse "event with refreshed counts"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/like [post]
func (c *EngagementController) Like(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, c.Service.Like)
}

// Unlike godoc
// @Summary Remove a like from an event
// @Description Removes the authenticated user from the event's like set. Unliking an event that was never liked is a no-op.
// @Tags engagement
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventResponse "event with refreshed counts"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/unlike [post]
func (c *EngagementController) Unlike(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, c.Service.Unlike)
}

func (c *EngagementController) toggle(w http.ResponseWriter, r *http.Request,
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

// AddReview godoc
// @Summary Review an event
// @Description Appends a review by the authenticated user. Reviews are append-only.
// @Tags engagement
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body AddReviewRequest true "Review text"
// @Success 201 {object} controllers.ReviewResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/reviews [post]
func (c *EngagementController) AddReview(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, "missing eventID")
		return
	}
	var req AddReviewRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	review, err := c.Service.AddReview(r.Context(), eventID, userID, req.Text)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, ReviewResponse{Status: helpers.StatusSuccess, Review: review})
}

// ListReviews godoc
// @Summary List reviews for an event
// @Description Returns the event's reviews, newest first, with author display names.
// @Tags engagement
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ReviewListResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID}/reviews [get]
func (c *EngagementController) ListReviews(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, "missing eventID")
		return
	}
	reviews, err := c.Service.ListReviews(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ReviewListResponse{Status: helpers.StatusSuccess, Reviews: reviews})
}
