package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fundingthecommons/impactful-events/internal/application"
)

type sessionService interface {
	CreateSession(ctx context.Context, params application.CreateSessionParams) (application.Session, error)
	CreateSessions(ctx context.Context, params application.CreateSessionsParams) ([]application.Session, error)
	UpdateSession(ctx context.Context, params application.UpdateSessionParams) (application.Session, error)
	DeleteSession(ctx context.Context, principal application.Principal, sessionID string) error
	GetSession(ctx context.Context, id string) (application.Session, error)
	ListSessions(ctx context.Context, params application.ListSessionsParams) ([]application.Session, []application.ConflictWarning, error)
	RescheduleSession(ctx context.Context, params application.RescheduleParams) (application.RescheduleResult, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	session, err := h.service.CreateSession(r.Context(), application.CreateSessionParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: toSessionDTO(session)})
}

// CreateBulk persists a batch of sessions atomically; if any input is
// invalid, nothing is created.
func (h *SessionHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bulkSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	inputs := make([]application.SessionInput, 0, len(req.Sessions))
	for _, item := range req.Sessions {
		inputs = append(inputs, item.toInput())
	}

	sessions, err := h.service.CreateSessions(r.Context(), application.CreateSessionsParams{
		Principal: principal,
		Inputs:    inputs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	session, err := h.service.UpdateSession(r.Context(), application.UpdateSessionParams{
		Principal: principal,
		SessionID: sessionID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSession(r.Context(), principal, sessionID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildListSessionsParams(r.URL.Query(), principal)

	sessions, warnings, err := h.service.ListSessions(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := listSessionsResponse{
		Sessions: toSessionDTOs(sessions),
		Warnings: toWarningDTOs(warnings),
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Reschedule moves a session to a new start time and returns the change
// manifest of the resulting cascade.
func (h *SessionHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.RescheduleSession(r.Context(), application.RescheduleParams{
		Principal: principal,
		SessionID: sessionID,
		NewStart:  parseTime(req.Start),
		NewRoomID: req.RoomID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "SessionHandler", "Reschedule", "session_id", sessionID)
	logger.InfoContext(r.Context(), "session rescheduled",
		"shifted", len(result.Shifted),
		"truncated", result.Truncated,
	)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rescheduleResponse{
		Session:   toSessionDTO(result.Moved),
		Shifted:   toShiftDTOs(result.Shifted),
		Truncated: result.Truncated,
	})
}

type sessionRequest struct {
	EventID     string  `json:"event_id"`
	VenueID     string  `json:"venue_id"`
	RoomID      *string `json:"room_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
}

func (r sessionRequest) toInput() application.SessionInput {
	return application.SessionInput{
		EventID:     strings.TrimSpace(r.EventID),
		VenueID:     strings.TrimSpace(r.VenueID),
		RoomID:      r.RoomID,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Start:       parseTime(r.Start),
		End:         parseTime(r.End),
	}
}

type bulkSessionRequest struct {
	Sessions []sessionRequest `json:"sessions"`
}

type rescheduleRequest struct {
	Start  string  `json:"start"`
	RoomID *string `json:"room_id"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO         `json:"sessions"`
	Warnings []conflictWarningDTO `json:"warnings,omitempty"`
}

type rescheduleResponse struct {
	Session   sessionDTO `json:"session"`
	Shifted   []shiftDTO `json:"shifted"`
	Truncated bool       `json:"truncated"`
}

type sessionDTO struct {
	ID          string  `json:"id"`
	EventID     string  `json:"event_id"`
	VenueID     string  `json:"venue_id"`
	RoomID      *string `json:"room_id,omitempty"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toSessionDTO(session application.Session) sessionDTO {
	return sessionDTO{
		ID:          session.ID,
		EventID:     session.EventID,
		VenueID:     session.VenueID,
		RoomID:      session.RoomID,
		Title:       session.Title,
		Description: session.Description,
		Start:       session.Start.UTC().Format(time.RFC3339),
		End:         session.End.UTC().Format(time.RFC3339),
		CreatedAt:   session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}

type shiftDTO struct {
	SessionID string `json:"session_id"`
	OldStart  string `json:"old_start"`
	OldEnd    string `json:"old_end"`
	NewStart  string `json:"new_start"`
	NewEnd    string `json:"new_end"`
}

func toShiftDTOs(shifts []application.SessionShift) []shiftDTO {
	out := make([]shiftDTO, 0, len(shifts))
	for _, shift := range shifts {
		out = append(out, shiftDTO{
			SessionID: shift.SessionID,
			OldStart:  shift.OldStart.UTC().Format(time.RFC3339),
			OldEnd:    shift.OldEnd.UTC().Format(time.RFC3339),
			NewStart:  shift.NewStart.UTC().Format(time.RFC3339),
			NewEnd:    shift.NewEnd.UTC().Format(time.RFC3339),
		})
	}
	return out
}

type conflictWarningDTO struct {
	SessionID     string  `json:"session_id"`
	WithSessionID string  `json:"with_session_id"`
	VenueID       string  `json:"venue_id"`
	RoomID        *string `json:"room_id,omitempty"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			SessionID:     warning.SessionID,
			WithSessionID: warning.WithSessionID,
			VenueID:       warning.VenueID,
			RoomID:        warning.RoomID,
		})
	}
	return out
}

func buildListSessionsParams(values url.Values, principal application.Principal) application.ListSessionsParams {
	params := application.ListSessionsParams{Principal: principal}

	params.EventID = strings.TrimSpace(values.Get("event_id"))
	params.VenueID = strings.TrimSpace(values.Get("venue_id"))

	if after := strings.TrimSpace(values.Get("starts_after")); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			params.StartsAfter = &ts
		}
	}
	if before := strings.TrimSpace(values.Get("ends_before")); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			params.EndsBefore = &ts
		}
	}

	return params
}
