package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gatherapp/internal/delivery/http/helpers"
	"gatherapp/internal/delivery/http/middleware"
	"gatherapp/internal/domain"
)

// CreateEventRequest is the request body for POST /events. Capacity and image
// are optional; server defaults apply. Coordinates are always derived from
// the location address, never accepted from the client.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Capacity    int       `json:"capacity"`
	Image       string    `json:"image"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	if c.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "location is required")
	}
	if !domain.ValidCategory(c.Category) {
		errs = append(errs, "unknown category")
	}
	if c.Price < 0 {
		errs = append(errs, "price must be non-negative")
	}
	if c.Capacity < 0 {
		errs = append(errs, "capacity must be non-negative")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}.
// All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	Category    *string    `json:"category"`
	Price       *float64   `json:"price"`
	Capacity    *int       `json:"capacity"`
	Image       *string    `json:"image"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Location != nil && strings.TrimSpace(*u.Location) == "" {
		errs = append(errs, "location cannot be empty")
	}
	if u.Category != nil && !domain.ValidCategory(*u.Category) {
		errs = append(errs, "unknown category")
	}
	if u.Price != nil && *u.Price < 0 {
		errs = append(errs, "price must be non-negative")
	}
	if u.Capacity != nil && *u.Capacity <= 0 {
		errs = append(errs, "capacity must be positive")
	}
	return errs
}

// EventResponse is the success envelope carrying a single event.
type EventResponse struct {
	Status string        `json:"status"`
	Event  *domain.Event `json:"event"`
}

// EventListResponse is the success envelope for GET /events.
type EventListResponse struct {
	Status     string          `json:"status"`
	Events     []*domain.Event `json:"events"`
	Results    int             `json:"results"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a new event
// @Description Creates an event with the authenticated user as organizer. The location address is geocoded server-side. Capacity defaults to 100 and image to a placeholder when omitted.
// @Tags events
// @Accept json
// @Produce json
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventResponse
// @Failure 400 {object} helpers.ErrorResponse "validation or geocoding failure"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	event := &domain.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		Capacity:    req.Capacity,
		ImageURL:    req.Image,
	}
	if err := c.Service.Create(r.Context(), userID, event); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, EventResponse{Status: helpers.StatusSuccess, Event: event})
}

// List godoc
// @Summary List events
// @Description Returns a filtered, sorted, paginated event listing. Filters: category, status (upcoming|ended), date, minPrice, maxPrice, lng/lat/radius (km). Sort fields: date, price, title, created_at ("-" prefix for descending).
// @Tags events
// @Produce json
// @Param category query string false "Category filter"
// @Param status query string false "upcoming or ended"
// @Param date query string false "Events on/after this date (RFC3339 or YYYY-MM-DD)"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param lng query number false "Center longitude for radius search"
// @Param lat query number false "Center latitude for radius search"
// @Param radius query number false "Search radius in kilometers"
// @Param sort query string false "Comma separated sort fields"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} controllers.EventListResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	q := helpers.ParseEventQuery(r)
	page, err := c.Service.List(r.Context(), q)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	events := page.Events
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSON(w, http.StatusOK, EventListResponse{
		Status:     helpers.StatusSuccess,
		Events:     events,
		Results:    page.Results,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	})
}

// GetByID godoc
// @Summary Get an event by ID
// @Description Returns the event with organizer summary and derived registration and like counts.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID} [get]
func (c *EventController) GetByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetByID(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventResponse{Status: helpers.StatusSuccess, Event: event})
}

// Update godoc
// @Summary Update an event
// @Description Partially updates an event. Only the organizer can update. A changed location is re-geocoded.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventResponse
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 403 {object} helpers.ErrorResponse "not the organizer"
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	upd := domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.Image,
		Capacity:    req.Capacity,
	}
	event, err := c.Service.Update(r.Context(), eventID, userID, upd)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventResponse{Status: helpers.StatusSuccess, Event: event})
}

// Delete godoc
// @Summary Delete an event
// @Description Deletes an event and its attendees, likes, and reviews. Only the organizer can delete.
// @Tags events
// @Param eventID path string true "Event ID"
// @Success 204 "no content"
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 403 {object} helpers.ErrorResponse "not the organizer"
// @Failure 404 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.Delete(r.Context(), eventID, userID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
