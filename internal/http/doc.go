// Package http provides HTTP handlers and middleware for the attendance API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     The token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie. PUT /sessions/current rotates the current
//     token, DELETE /sessions/current signs out, and DELETE /sessions/{token}
//     lets an administrator revoke any session.
//   - GET /users, POST /users, GET/PUT/DELETE /users/{id}: user management
//     endpoints exchanging the `userDTO` payload defined in user_handler.go.
//     Listing is available to any authenticated principal; mutations require
//     admin privileges or self ownership per the application services.
//   - GET /entries, POST /entries, POST /entries/bulk, GET/DELETE
//     /entries/{date}: attendance records exchanging the `entryDTO` payload
//     defined in entry_handler.go. A date with no entry means working from
//     home. Bulk apply writes the same entry to many dates and reports
//     per-date failures without aborting the batch.
//   - GET /holidays, POST /holidays, DELETE /holidays/{date}: the
//     organization holiday table. GET /holidays/calendar.ics exports the
//     table as an iCalendar feed; POST /holidays/import ingests one.
//   - GET /reports/monthly?month=YYYY-MM: the per-user monthly summary,
//     JSON by default and CSV with format=csv.
//   - POST /workbot/query: the natural-language assistant. Body: {"query"}.
//     The response carries resolved dates or a structured reasoning result.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
