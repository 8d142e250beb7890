package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/application"
)

type venueService interface {
	CreateVenue(ctx context.Context, params application.CreateVenueParams) (application.Venue, error)
	UpdateVenue(ctx context.Context, params application.UpdateVenueParams) (application.Venue, error)
	DeleteVenue(ctx context.Context, principal application.Principal, venueID string) error
	GetVenue(ctx context.Context, id string) (application.Venue, error)
	ListVenues(ctx context.Context, eventID string) ([]application.Venue, error)
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, venueID string) ([]application.Room, error)
}

type VenueHandler struct {
	service   venueService
	responder responder
}

func NewVenueHandler(service venueService, logger *slog.Logger) *VenueHandler {
	return &VenueHandler{service: service, responder: newResponder(logger)}
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	venue, err := h.service.CreateVenue(r.Context(), application.CreateVenueParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := VenueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(venueID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	venue, err := h.service.UpdateVenue(r.Context(), application.UpdateVenueParams{
		Principal: principal,
		VenueID:   venueID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := VenueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(venueID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteVenue(r.Context(), principal, venueID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := VenueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(venueID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	venue, err := h.service.GetVenue(r.Context(), venueID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID := strings.TrimSpace(r.URL.Query().Get("event_id"))
	venues, err := h.service.ListVenues(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listVenuesResponse{Venues: toVenueDTOs(venues)})
}

// CreateRoom adds a room to the venue resolved from the request path.
func (h *VenueHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := VenueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(venueID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		VenueID:   venueID,
		Input:     application.RoomInput{Name: strings.TrimSpace(req.Name)},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *VenueHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     application.RoomInput{Name: strings.TrimSpace(req.Name)},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *VenueHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VenueHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := VenueIDFromContext(r.Context())
	if !ok || strings.TrimSpace(venueID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidVenueID)
		return
	}

	rooms, err := h.service.ListRooms(r.Context(), venueID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

type venueRequest struct {
	EventID     string  `json:"event_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r venueRequest) toInput() application.VenueInput {
	return application.VenueInput{
		EventID:     strings.TrimSpace(r.EventID),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
	}
}

type roomRequest struct {
	Name string `json:"name"`
}

type venueResponse struct {
	Venue venueDTO `json:"venue"`
}

type listVenuesResponse struct {
	Venues []venueDTO `json:"venues"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type venueDTO struct {
	ID          string  `json:"id"`
	EventID     string  `json:"event_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toVenueDTO(venue application.Venue) venueDTO {
	return venueDTO{
		ID:          venue.ID,
		EventID:     venue.EventID,
		Name:        venue.Name,
		Description: venue.Description,
		CreatedAt:   venue.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   venue.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toVenueDTOs(venues []application.Venue) []venueDTO {
	if len(venues) == 0 {
		return nil
	}
	out := make([]venueDTO, 0, len(venues))
	for _, venue := range venues {
		out = append(out, toVenueDTO(venue))
	}
	return out
}

type roomDTO struct {
	ID        string `json:"id"`
	VenueID   string `json:"venue_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		VenueID:   room.VenueID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
