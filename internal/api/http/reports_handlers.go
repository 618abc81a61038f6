package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
	"github.com/mind-engage/mindengage-clubs/internal/reports"
)

// GET /reports/overall
func OverallReportHandler(svc *reports.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.OverallReport(r.Context())
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}

// GET /clubs/{clubID}/tests/{testID}/results
func TestResultsHandler(svc *reports.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := idParam(r, "clubID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		testID, err := idParam(r, "testID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		res, err := svc.TestResults(r.Context(), clubID, testID, rbac.ActorFromContext(r.Context()))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

// GET /users/{roll}/history
// RBAC: the user themself, or any role holding report:all (router).
func UserHistoryHandler(svc *reports.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hist, err := svc.UserHistory(r.Context(), chi.URLParam(r, "roll"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, hist)
	}
}

// isSelf reports whether the {roll} URL parameter is the caller.
func isSelf(r *http.Request) bool {
	sub := rbac.SubjectFromContext(r.Context())
	return sub != "" && sub == chi.URLParam(r, "roll")
}
