package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/attempt"
	"github.com/mind-engage/mindengage-clubs/internal/delivery"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// GET /tests/resolve?test_type=daily&test_date=2025-05-01
func ResolveTestHandler(svc *delivery.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		res, err := svc.Resolve(r.Context(), q.Get("test_type"), q.Get("test_date"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}
}

type submitReq struct {
	Type    string        `json:"test_type"`
	Date    string        `json:"test_date"`
	TestIDs []int64       `json:"test_ids"`
	Answers map[int64]int `json:"answers"` // question id -> option 1..4
}

// POST /attempts
// The user is always the authenticated subject.
func SubmitAttemptHandler(svc *attempt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Submit(r.Context(), attempt.Submission{
			UserRoll: rbac.SubjectFromContext(r.Context()),
			Type:     req.Type,
			Date:     req.Date,
			TestIDs:  req.TestIDs,
			Answers:  req.Answers,
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, res)
	}
}
