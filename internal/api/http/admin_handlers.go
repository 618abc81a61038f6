package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/eventlog"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
)

type eventView struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"typ"`
	Key       string `json:"key"`
	Actor     string `json:"actor"`
	Data      string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// GET /admin/events?after=0&limit=100
// Oldest first, so a client can page by passing the last seq back as after.
func ListEventsHandler(d *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)

		evs, err := eventlog.Since(r.Context(), d.SQL, after, limit)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		out := make([]eventView, 0, len(evs))
		for _, e := range evs {
			out = append(out, eventView{
				Seq:       e.Seq,
				Type:      e.Type,
				Key:       e.Key,
				Actor:     e.Actor,
				Data:      e.DataJSON,
				CreatedAt: e.CreatedAt,
			})
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /admin/users/{roll}/derived-role
// The global role recomputed from the user's club roles, for comparing
// against the stored last-write value.
func DerivedRoleHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roll := chi.URLParam(r, "roll")
		role, err := svc.DerivedGlobalRole(r.Context(), roll)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"user_roll": roll, "derived_role": role})
	}
}
