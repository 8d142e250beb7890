package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fundingthecommons/impactful-events/internal/application"
	"github.com/fundingthecommons/impactful-events/internal/cascade"
	"github.com/fundingthecommons/impactful-events/internal/config"
	httptransport "github.com/fundingthecommons/impactful-events/internal/http"
	"github.com/fundingthecommons/impactful-events/internal/persistence"
	"github.com/fundingthecommons/impactful-events/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	eventRepo := newEventRepositoryAdapter(sqlite.NewEventRepository(pool))
	venueRepo := newVenueRepositoryAdapter(sqlite.NewVenueRepository(pool))
	roomRepo := newRoomRepositoryAdapter(sqlite.NewRoomRepository(pool))
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool))

	eventService := application.NewEventServiceWithLogger(eventRepo, idGenerator, now, logger)
	venueService := application.NewVenueServiceWithLogger(venueRepo, roomRepo, eventRepo, idGenerator, now, logger)
	sessionService := application.NewSessionService(application.SessionServiceConfig{
		Sessions:    sessionRepo,
		Events:      eventRepo,
		Venues:      venueRepo,
		Rooms:       roomRepo,
		Authorizer:  adminAuthorizer{},
		MaxCascade:  cfg.MaxCascade,
		IDGenerator: idGenerator,
		Now:         now,
		Logger:      logger,
	})

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Events:   httptransport.NewEventHandler(eventService, logger),
		Venues:   httptransport.NewVenueHandler(venueService, logger),
		Sessions: httptransport.NewSessionHandler(sessionService, logger),
	})

	protected := httptransport.RequireSession(staticTokenValidator{token: cfg.APIToken}, logger)(router)
	handler := httptransport.RequestLogger(logger)(protected)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("agenda API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// staticTokenValidator accepts a single operator supplied API token and maps
// it to an administrator principal. Per-user accounts sit behind the same
// SessionValidator seam when a real identity provider is wired in.
type staticTokenValidator struct {
	token string
}

func (v staticTokenValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	if v.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return application.Principal{}, application.ErrUnauthorized
	}
	return application.Principal{UserID: "api", IsAdmin: true}, nil
}

// adminAuthorizer grants session management to administrator principals.
type adminAuthorizer struct{}

func (adminAuthorizer) CanManageSession(ctx context.Context, principal application.Principal, session application.Session) (bool, error) {
	return principal.IsAdmin, nil
}

type eventRepositoryAdapter struct {
	repo *sqlite.EventRepository
}

func newEventRepositoryAdapter(repo *sqlite.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, persistence.Event(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return application.Event(stored), nil
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, persistence.Event(event)); err != nil {
		return application.Event{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context) ([]application.Event, error) {
	stored, err := a.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Event, 0, len(stored))
	for _, event := range stored {
		out = append(out, application.Event(event))
	}
	return out, nil
}

func (a *eventRepositoryAdapter) EventExists(ctx context.Context, id string) (bool, error) {
	_, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type venueRepositoryAdapter struct {
	repo *sqlite.VenueRepository
}

func newVenueRepositoryAdapter(repo *sqlite.VenueRepository) *venueRepositoryAdapter {
	return &venueRepositoryAdapter{repo: repo}
}

func (a *venueRepositoryAdapter) CreateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	if err := a.repo.CreateVenue(ctx, persistence.Venue(venue)); err != nil {
		return application.Venue{}, err
	}
	return a.GetVenue(ctx, venue.ID)
}

func (a *venueRepositoryAdapter) GetVenue(ctx context.Context, id string) (application.Venue, error) {
	stored, err := a.repo.GetVenue(ctx, id)
	if err != nil {
		return application.Venue{}, err
	}
	return application.Venue(stored), nil
}

func (a *venueRepositoryAdapter) UpdateVenue(ctx context.Context, venue application.Venue) (application.Venue, error) {
	if err := a.repo.UpdateVenue(ctx, persistence.Venue(venue)); err != nil {
		return application.Venue{}, err
	}
	return a.GetVenue(ctx, venue.ID)
}

func (a *venueRepositoryAdapter) DeleteVenue(ctx context.Context, id string) error {
	return a.repo.DeleteVenue(ctx, id)
}

func (a *venueRepositoryAdapter) ListVenues(ctx context.Context, eventID string) ([]application.Venue, error) {
	stored, err := a.repo.ListVenues(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]application.Venue, 0, len(stored))
	for _, venue := range stored {
		out = append(out, application.Venue(venue))
	}
	return out, nil
}

type roomRepositoryAdapter struct {
	repo *sqlite.RoomRepository
}

func newRoomRepositoryAdapter(repo *sqlite.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, persistence.Room(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return application.Room(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, persistence.Room(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context, venueID string) ([]application.Room, error) {
	stored, err := a.repo.ListRooms(ctx, venueID)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, 0, len(stored))
	for _, room := range stored {
		out = append(out, application.Room(room))
	}
	return out, nil
}

func (a *roomRepositoryAdapter) CountRooms(ctx context.Context, venueID string) (int, error) {
	return a.repo.CountRooms(ctx, venueID)
}

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, persistence.Session(session)); err != nil {
		return application.Session{}, err
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) CreateSessions(ctx context.Context, sessions []application.Session) ([]application.Session, error) {
	stored := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		stored = append(stored, persistence.Session(session))
	}
	if err := a.repo.CreateSessions(ctx, stored); err != nil {
		return nil, err
	}

	out := make([]application.Session, 0, len(sessions))
	for _, session := range sessions {
		persisted, err := a.GetSession(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, persisted)
	}
	return out, nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return application.Session(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.UpdateSession(ctx, persistence.Session(session)); err != nil {
		return application.Session{}, err
	}
	return a.GetSession(ctx, session.ID)
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id string) error {
	return a.repo.DeleteSession(ctx, id)
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context, filter application.SessionRepositoryFilter) ([]application.Session, error) {
	stored, err := a.repo.ListSessions(ctx, persistence.SessionFilter{
		EventID:     filter.EventID,
		VenueID:     filter.VenueID,
		StartsAfter: filter.StartsAfter,
		EndsBefore:  filter.EndsBefore,
	})
	if err != nil {
		return nil, err
	}
	out := make([]application.Session, 0, len(stored))
	for _, session := range stored {
		out = append(out, application.Session(session))
	}
	return out, nil
}

func (a *sessionRepositoryAdapter) ListOverlapping(ctx context.Context, scope cascade.Scope, window cascade.Interval, excludeIDs []string) ([]application.Session, error) {
	stored, err := a.repo.ListOverlapping(ctx, persistence.SessionScope{
		VenueID: scope.VenueID,
		RoomID:  scope.RoomID,
	}, window.Start, window.End, excludeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]application.Session, 0, len(stored))
	for _, session := range stored {
		out = append(out, application.Session(session))
	}
	return out, nil
}

func (a *sessionRepositoryAdapter) ApplyReschedule(ctx context.Context, changes []application.PlacementChange) error {
	stored := make([]persistence.SessionTimeChange, 0, len(changes))
	for _, change := range changes {
		stored = append(stored, persistence.SessionTimeChange{
			SessionID: change.SessionID,
			Start:     change.Start,
			End:       change.End,
			RoomID:    change.RoomID,
			SetRoom:   change.SetRoom,
		})
	}
	return a.repo.ApplyReschedule(ctx, stored)
}
