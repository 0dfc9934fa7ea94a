// Package surreal implements the mirror store client on SurrealDB. The
// mirror is a best-effort synchronized copy: it files every record under the
// identifier assigned by the primary store and never mints its own.
//
// The connection uses the surrealcbor codec over a gorilla websocket so that
// time.Time values and record identifiers round-trip in the format SurrealDB
// expects.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/salonsync/salonsync/pkg/store"
)

// Store owns the websocket connection to SurrealDB.
type Store struct {
	db *surrealdb.DB
}

// Open connects and authenticates against the given namespace and database.
func Open(ctx context.Context, wsURL, namespace, database, username, password string) (*Store, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// The default codec mangles time.Time on the wire; surrealcbor matches
	// SurrealDB's internal CBOR encoding.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close shuts the websocket connection down.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// isNotFound classifies the driver errors SurrealDB returns for an absent
// record so callers get the nil-without-error convention instead.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// isDuplicate classifies the error SurrealDB returns when creating a record
// id that already exists.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// Table is the mirror store client for one table. The table binding happens
// at construction, alongside the primary repository for the same entity.
type Table[T any] struct {
	db   *surrealdb.DB
	name string
}

func NewTable[T any](s *Store, name string) *Table[T] {
	return &Table[T]{db: s.db, name: name}
}

func (t *Table[T]) rid(id int64) surrealmodels.RecordID {
	return surrealmodels.RecordID{Table: t.name, ID: id}
}

// SelectByID returns the mirror record for id, or nil without error when the
// mirror holds nothing under that identifier.
func (t *Table[T]) SelectByID(ctx context.Context, id int64) (*T, error) {
	rec, err := surrealdb.Select[T](ctx, t.db, t.rid(id))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mirror select %s: %w", t.name, err)
	}
	return rec, nil
}

// Insert files rec under the primary-assigned id. A record already present
// under that id comes back as store.ErrDuplicate so the adapter can treat the
// insert as idempotent.
func (t *Table[T]) Insert(ctx context.Context, id int64, rec *T) error {
	_, err := surrealdb.Create[T](ctx, t.db, t.rid(id), rec)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("mirror insert %s:%d: %w", t.name, id, store.ErrDuplicate)
		}
		return fmt.Errorf("mirror insert %s: %w", t.name, err)
	}
	return nil
}

// Replace overwrites the mirror record with the primary store's current
// copy. Replacement rather than patching keeps the mirror byte-equivalent to
// the primary after every update, including the timestamps GORM maintains.
func (t *Table[T]) Replace(ctx context.Context, id int64, rec *T) error {
	_, err := surrealdb.Update[T](ctx, t.db, t.rid(id), rec)
	if err != nil {
		return fmt.Errorf("mirror update %s: %w", t.name, err)
	}
	return nil
}

// Delete removes the record with id. Deleting an absent record is not an
// error in SurrealDB.
func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	_, err := surrealdb.Delete[T](ctx, t.db, t.rid(id))
	if err != nil {
		return fmt.Errorf("mirror delete %s: %w", t.name, err)
	}
	return nil
}

// SelectAll returns every record in the table.
func (t *Table[T]) SelectAll(ctx context.Context) ([]T, error) {
	result, err := surrealdb.Query[[]T](ctx, t.db, "SELECT * FROM type::table($tb)", map[string]any{
		"tb": t.name,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror select all %s: %w", t.name, err)
	}
	if result == nil || len(*result) == 0 {
		return nil, nil
	}
	return (*result)[0].Result, nil
}

// MatchWhere evaluates the filter with SurrealDB's exact-match semantics.
// Substring predicates are approximated by equality: a filter that matches a
// record by containment in the primary store may match nothing here, which is
// why search results are reported per store and never merged. Field names
// come from the recognized-parameter whitelist; values are always passed as
// query parameters.
func (t *Table[T]) MatchWhere(ctx context.Context, f store.Filter) ([]T, error) {
	query := "SELECT * FROM type::table($tb)"
	params := map[string]any{"tb": t.name}

	var conds []string
	i := 0
	for field, m := range f {
		p := fmt.Sprintf("p%d", i)
		conds = append(conds, fmt.Sprintf("%s = $%s", field, p))
		params[p] = m.Value
		i++
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	result, err := surrealdb.Query[[]T](ctx, t.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("mirror search %s: %w", t.name, err)
	}
	if result == nil || len(*result) == 0 {
		return nil, nil
	}
	return (*result)[0].Result, nil
}
