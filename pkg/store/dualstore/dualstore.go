// Package dualstore coordinates writes across the primary relational store
// and the SurrealDB mirror. The primary store is authoritative: a primary
// failure aborts the operation, while a mirror failure degrades the outcome
// to StatusPrimaryOnly and the request still succeeds.
package dualstore

import (
	"context"
	"errors"

	"github.com/salonsync/salonsync/pkg/models"
	"github.com/salonsync/salonsync/pkg/store"
)

// SyncStatus reports how far an operation propagated.
type SyncStatus string

const (
	// StatusSynced means both stores applied the operation.
	StatusSynced SyncStatus = "synced"
	// StatusPrimaryOnly means the primary store applied the operation but
	// the mirror did not; the stores have diverged for this record.
	StatusPrimaryOnly SyncStatus = "primary_only"
	// StatusFailed means the primary store rejected the operation. The
	// mirror is never touched in that case.
	StatusFailed SyncStatus = "failed"
)

// Result is the outcome of a single-record operation.
type Result[T any] struct {
	Status SyncStatus `json:"sync"`
	// Primary holds the record as the primary store saw it. Nil when the
	// operation did not produce a record.
	Primary *T `json:"local_result,omitempty"`
	// Mirror holds the mirror's copy when the operation read one.
	Mirror *T `json:"mirror_result,omitempty"`
	// MirrorError carries the mirror failure when Status is
	// StatusPrimaryOnly. Never set otherwise.
	MirrorError string `json:"mirror_error,omitempty"`
}

// ListResult is the outcome of a multi-record operation. The two slices are
// reported side by side and deliberately not merged: the stores may disagree
// both on membership and, for searches, on match semantics.
type ListResult[T any] struct {
	Status      SyncStatus `json:"sync"`
	Primary     []T        `json:"local_results"`
	Mirror      []T        `json:"mirror_results,omitempty"`
	MirrorError string     `json:"mirror_error,omitempty"`
}

// PrimaryClient is the slice of the primary store one adapter needs.
type PrimaryClient[T any] interface {
	Insert(ctx context.Context, rec *T) error
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	UpdateByID(ctx context.Context, id int64, patch map[string]any) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	FindWhere(ctx context.Context, f store.Filter) ([]T, error)
}

// MirrorClient is the slice of the mirror store one adapter needs. All reads
// follow the nil-without-error convention for absent records.
type MirrorClient[T any] interface {
	SelectByID(ctx context.Context, id int64) (*T, error)
	Insert(ctx context.Context, id int64, rec *T) error
	Replace(ctx context.Context, id int64, rec *T) error
	Delete(ctx context.Context, id int64) error
	SelectAll(ctx context.Context) ([]T, error)
	MatchWhere(ctx context.Context, f store.Filter) ([]T, error)
}

// Adapter routes one entity's operations through both stores.
type Adapter[T models.Record] struct {
	primary PrimaryClient[T]
	mirror  MirrorClient[T]
}

func New[T models.Record](primary PrimaryClient[T], mirror MirrorClient[T]) *Adapter[T] {
	return &Adapter[T]{primary: primary, mirror: mirror}
}

// Create inserts rec into the primary store, then mirrors it under the
// primary-assigned identifier. Create is idempotent on the mirror side: a
// record already filed under that identifier, whether found by the existence
// check or reported by a duplicate-insert error from a racing writer, counts
// as synced.
func (a *Adapter[T]) Create(ctx context.Context, rec *T) (*Result[T], error) {
	if err := a.primary.Insert(ctx, rec); err != nil {
		return &Result[T]{Status: StatusFailed}, err
	}

	id := (*rec).PrimaryID()

	existing, err := a.mirror.SelectByID(ctx, id)
	if err != nil {
		return &Result[T]{Status: StatusPrimaryOnly, Primary: rec, MirrorError: err.Error()}, nil
	}
	if existing != nil {
		return &Result[T]{Status: StatusSynced, Primary: rec, Mirror: existing}, nil
	}

	if err := a.mirror.Insert(ctx, id, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return &Result[T]{Status: StatusSynced, Primary: rec}, nil
		}
		return &Result[T]{Status: StatusPrimaryOnly, Primary: rec, MirrorError: err.Error()}, nil
	}
	return &Result[T]{Status: StatusSynced, Primary: rec}, nil
}

// List returns every record from both stores.
func (a *Adapter[T]) List(ctx context.Context) (*ListResult[T], error) {
	primary, err := a.primary.FindAll(ctx)
	if err != nil {
		return &ListResult[T]{Status: StatusFailed}, err
	}

	mirror, err := a.mirror.SelectAll(ctx)
	if err != nil {
		return &ListResult[T]{Status: StatusPrimaryOnly, Primary: primary, MirrorError: err.Error()}, nil
	}
	return &ListResult[T]{Status: StatusSynced, Primary: primary, Mirror: mirror}, nil
}

// Get reads the record from the primary store only. Returns store.ErrNotFound
// when no record has that identifier.
func (a *Adapter[T]) Get(ctx context.Context, id int64) (*T, error) {
	rec, err := a.primary.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

// Update applies the patch to the primary store and replaces the mirror copy
// with the refreshed primary record. A patch that matches no primary record
// returns store.ErrNotFound before the mirror is touched.
func (a *Adapter[T]) Update(ctx context.Context, id int64, patch map[string]any) (*Result[T], error) {
	affected, err := a.primary.UpdateByID(ctx, id, patch)
	if err != nil {
		return &Result[T]{Status: StatusFailed}, err
	}
	if affected == 0 {
		return &Result[T]{Status: StatusFailed}, store.ErrNotFound
	}

	updated, err := a.primary.FindByID(ctx, id)
	if err != nil {
		return &Result[T]{Status: StatusFailed}, err
	}

	if err := a.mirror.Replace(ctx, id, updated); err != nil {
		return &Result[T]{Status: StatusPrimaryOnly, Primary: updated, MirrorError: err.Error()}, nil
	}
	return &Result[T]{Status: StatusSynced, Primary: updated}, nil
}

// Delete removes the record from both stores. Returns store.ErrNotFound when
// the primary store has no such record; the mirror copy, if any, is left in
// place in that case.
func (a *Adapter[T]) Delete(ctx context.Context, id int64) (*Result[T], error) {
	rec, err := a.primary.FindByID(ctx, id)
	if err != nil {
		return &Result[T]{Status: StatusFailed}, err
	}
	if rec == nil {
		return &Result[T]{Status: StatusFailed}, store.ErrNotFound
	}

	if _, err := a.primary.DeleteByID(ctx, id); err != nil {
		return &Result[T]{Status: StatusFailed}, err
	}

	if err := a.mirror.Delete(ctx, id); err != nil {
		return &Result[T]{Status: StatusPrimaryOnly, Primary: rec, MirrorError: err.Error()}, nil
	}
	return &Result[T]{Status: StatusSynced, Primary: rec}, nil
}

// Search evaluates the filter against both stores. The primary store matches
// by case-insensitive containment while the mirror matches exactly, so the
// two result sets answer different questions and are returned unmerged.
func (a *Adapter[T]) Search(ctx context.Context, f store.Filter) (*ListResult[T], error) {
	primary, err := a.primary.FindWhere(ctx, f)
	if err != nil {
		return &ListResult[T]{Status: StatusFailed}, err
	}

	mirror, err := a.mirror.MatchWhere(ctx, f)
	if err != nil {
		return &ListResult[T]{Status: StatusPrimaryOnly, Primary: primary, MirrorError: err.Error()}, nil
	}
	return &ListResult[T]{Status: StatusSynced, Primary: primary, Mirror: mirror}, nil
}
