// Package store holds the pieces shared by the primary and mirror store
// clients: the filter DSL used by search and the sentinel errors the
// dual-store adapter classifies on.
//
// The two clients have deliberately different query power. PostgreSQL can
// evaluate a substring predicate natively (ILIKE); the SurrealDB mirror client
// approximates the same Filter with exact equality. The Filter type records
// the intended semantics so each client can document the approximation it
// applies rather than silently drifting.
package store

import (
	"errors"
	"net/url"
)

// ErrNotFound reports that an identifier matched no record in the primary
// store. Write operations short-circuit on it before touching the mirror.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate reports that the mirror already holds a record under the
// identifier being inserted. The adapter folds it into the idempotent create
// path, so a dual-create race is indistinguishable from a re-sent request.
var ErrDuplicate = errors.New("record already exists")

// Match is a single field predicate. Substring asks for containment
// semantics; a client that cannot express containment falls back to equality
// and the two result sets are reported independently, never reconciled.
type Match struct {
	Value     string
	Substring bool
}

// Filter maps column names to predicates. Keys are always drawn from the
// recognized-parameter whitelist, never from raw client input, so clients may
// splice them into query text.
type Filter map[string]Match

// FilterFromQuery builds a Filter from the recognized search parameters.
// Unknown parameters are ignored.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{}
	if v := q.Get("name"); v != "" {
		f["name"] = Match{Value: v, Substring: true}
	}
	if v := q.Get("email"); v != "" {
		f["email"] = Match{Value: v, Substring: true}
	}
	return f
}
