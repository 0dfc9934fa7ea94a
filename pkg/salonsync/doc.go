// Package salonsync is the application layer: configuration and command
// parsing, store wiring, and the HTTP transport.
//
// The server keeps two databases for the salon's records. PostgreSQL is
// authoritative; SurrealDB holds a best-effort mirror of every record,
// filed under the identifier the primary assigned. Writes go to the
// primary first and then to the mirror, and each response reports whether
// the mirror kept up ("synced") or fell behind ("primary_only"). A mirror
// failure never fails the request; a primary failure always does, and the
// mirror is left untouched.
//
// Staff accounts authenticate the rest of the API with 24-hour bearer
// tokens. Registration writes the account to the primary store only; the
// mirror learns about accounts through the /api/users resource endpoints
// like any other record.
package salonsync
