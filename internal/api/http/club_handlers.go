package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/intake"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// GET /clubs
func ListClubsHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubs, err := svc.ListClubs(r.Context())
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, clubs)
	}
}

// POST /clubs {name, description}
func CreateClubHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.CreateClub(r.Context(), req.Name, req.Description)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, c)
	}
}

// POST /clubs/{clubID}/questions {test_id, items:[...]}
func PostQuestionsHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := idParam(r, "clubID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		var req struct {
			TestID int64          `json:"test_id"`
			Items  []intake.Draft `json:"items"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.SubmitQuestions(r.Context(), intake.PostInput{
			ClubID: clubID,
			Actor:  rbac.ActorFromContext(r.Context()),
			TestID: req.TestID,
			Items:  req.Items,
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, res)
	}
}

// POST /clubs/{clubID}/tests {title, test_type, test_date}
func CreateTestHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := idParam(r, "clubID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		var req struct {
			Title string `json:"title"`
			Type  string `json:"test_type"`
			Date  string `json:"test_date"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		t, err := svc.CreateTest(r.Context(), intake.NewTest{
			ClubID: clubID,
			Actor:  rbac.ActorFromContext(r.Context()),
			Title:  req.Title,
			Type:   req.Type,
			Date:   req.Date,
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, t)
	}
}

// PUT /tests/{testID}/active {active}
func SetTestActiveHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, err := idParam(r, "testID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		var req struct {
			Active *bool `json:"active"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Active == nil {
			apperr.Write(w, apperr.Validation("active is required"))
			return
		}
		if err := svc.SetTestActive(r.Context(), testID, *req.Active, rbac.SubjectFromContext(r.Context())); err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"test_id": testID, "active": *req.Active})
	}
}

// POST /clubs/{clubID}/roles {user_roll, role, can_post_questions}
func RequestClubRoleHandler(svc *intake.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := idParam(r, "clubID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		var req struct {
			UserRoll string `json:"user_roll"`
			Role     string `json:"role"`
			CanPost  bool   `json:"can_post_questions"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id, err := svc.RequestClubRole(r.Context(), intake.RoleRequest{
			ClubID:   clubID,
			Actor:    rbac.ActorFromContext(r.Context()),
			UserRoll: req.UserRoll,
			Role:     req.Role,
			CanPost:  req.CanPost,
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"pending_id": id, "status": "waiting"})
	}
}
