package salonsync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/salonsync/salonsync/pkg/models"
	"github.com/salonsync/salonsync/pkg/store"
	"github.com/salonsync/salonsync/pkg/store/dualstore"
)

// mount registers the six resource routes for one entity prefix. The
// adapter is bound per entity at construction, so every handler body is
// shared across entities.
func mount[T models.Record](r *mux.Router, prefix string, a *App, ad *dualstore.Adapter[T]) {
	r.HandleFunc(prefix+"/create", handleCreate(a, ad)).Methods("POST")
	r.HandleFunc(prefix+"/list", handleList(a, ad)).Methods("GET")
	r.HandleFunc(prefix+"/search", handleSearch(a, ad)).Methods("GET")
	r.HandleFunc(prefix+"/{id:[0-9]+}", handleGet(a, ad)).Methods("GET")
	r.HandleFunc(prefix+"/{id:[0-9]+}", handleUpdate(a, ad)).Methods("PUT")
	r.HandleFunc(prefix+"/{id:[0-9]+}", handleDelete(a, ad)).Methods("DELETE")
}

// handleCreate inserts the record in the primary store and mirrors it. A
// mirror failure still returns 201; the body's sync status tells the client
// the stores diverged.
func handleCreate[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		res, err := ad.Create(r.Context(), &rec)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.noteDivergence(r, res.Status, res.MirrorError)
		respondJSON(w, http.StatusCreated, res)
	}
}

func handleList[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ad.List(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.noteDivergence(r, res.Status, res.MirrorError)
		respondJSON(w, http.StatusOK, res)
	}
}

// handleSearch filters by the recognized query parameters. The two result
// sets answer different questions (containment vs exact match) and are
// returned side by side.
func handleSearch[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := store.FilterFromQuery(r.URL.Query())
		if len(f) == 0 {
			respondError(w, http.StatusBadRequest, "Search requires a name or email parameter")
			return
		}

		res, err := ad.Search(r.Context(), f)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.noteDivergence(r, res.Status, res.MirrorError)
		respondJSON(w, http.StatusOK, res)
	}
}

// handleGet reads from the primary store only.
func handleGet[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}

		rec, err := ad.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Record not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, rec)
	}
}

func handleUpdate[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}

		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		// The identifier is path-addressed and immutable.
		delete(patch, "id")
		if len(patch) == 0 {
			respondError(w, http.StatusBadRequest, "Empty patch")
			return
		}

		res, err := ad.Update(r.Context(), id, patch)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Record not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.noteDivergence(r, res.Status, res.MirrorError)
		respondJSON(w, http.StatusOK, res)
	}
}

func handleDelete[T models.Record](a *App, ad *dualstore.Adapter[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := recordID(w, r)
		if !ok {
			return
		}

		res, err := ad.Delete(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Record not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		a.noteDivergence(r, res.Status, res.MirrorError)
		respondJSON(w, http.StatusOK, res)
	}
}

// handleAppointmentStats reports appointment demand for a date range:
// total count plus the five busiest time slots and most requested services.
// Primary store only.
func (a *App) handleAppointmentStats(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "Both from and to parameters are required")
		return
	}

	stats, err := a.primary.AppointmentStats(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// recordID extracts the numeric path id, responding 400 on garbage. The
// route pattern already constrains the segment to digits, so failures here
// are overflow only.
func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid record ID")
		return 0, false
	}
	return id, true
}

// noteDivergence logs operations the mirror did not apply.
func (a *App) noteDivergence(r *http.Request, status dualstore.SyncStatus, mirrorErr string) {
	if status != dualstore.StatusPrimaryOnly {
		return
	}
	a.log.Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("mirror_error", mirrorErr).
		Msg("mirror out of sync")
}

// respondJSON sends a JSON response with the given status. Payloads are
// small enough that marshal failures only arise from programming errors.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
