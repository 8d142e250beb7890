// Package http provides HTTP handlers and middleware for the agenda API.
//
// The router exposes the following endpoints:
//   - GET /events, POST /events, GET /events/{id}, PUT /events/{id},
//     DELETE /events/{id}: administrator controlled event management endpoints
//     exchanging the `eventDTO` payload defined in event_handler.go.
//   - GET /venues?event_id=, POST /venues, GET /venues/{id}, PUT /venues/{id},
//     DELETE /venues/{id}: venue catalog endpoints exchanging the `venueDTO`
//     payload defined in venue_handler.go.
//   - GET /venues/{id}/rooms, POST /venues/{id}/rooms, PUT /rooms/{id},
//     DELETE /rooms/{id}: room management within a venue, bounded by the
//     per-venue room limit enforced in the application layer.
//   - GET /sessions, POST /sessions, POST /sessions/bulk, GET /sessions/{id},
//     PUT /sessions/{id}, DELETE /sessions/{id}: session management endpoints
//     exchanging the `sessionDTO` payload defined in session_handler.go.
//     Listings include conflict warnings for overlapping sessions.
//   - POST /sessions/{id}/reschedule: moves a session to a new start time,
//     optionally a new room, and pushes forward every session it collides
//     with. The response carries the moved session, the cascaded shifts, and
//     a truncation flag when the cascade hit its iteration bound.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
