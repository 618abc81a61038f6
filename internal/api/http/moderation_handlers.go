package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// POST /moderation/questions/{pendingID}/approve
func ApproveQuestionHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "pendingID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		a, err := svc.ApproveQuestion(r.Context(), moderation.ItemInput{
			PendingID: id,
			Actor:     rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, a)
	}
}

// POST /moderation/questions/{pendingID}/reject
func RejectQuestionHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "pendingID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		err = svc.RejectQuestion(r.Context(), moderation.ItemInput{
			PendingID: id,
			Actor:     rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"pending_id": id, "status": "rejected"})
	}
}

type groupReq struct {
	Type string `json:"test_type"`
	Date string `json:"test_date"`
}

func groupInput(w http.ResponseWriter, r *http.Request) (moderation.GroupInput, bool) {
	var req groupReq
	if !decodeJSON(w, r, &req) {
		return moderation.GroupInput{}, false
	}
	key, err := moderation.ParseGroupKey(req.Type, req.Date)
	if err != nil {
		apperr.Write(w, err)
		return moderation.GroupInput{}, false
	}
	return moderation.GroupInput{Key: key, Actor: rbac.SubjectFromContext(r.Context())}, true
}

// POST /moderation/groups/approve {test_type, test_date}
func ApproveGroupHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := groupInput(w, r)
		if !ok {
			return
		}
		approved, err := svc.ApproveGroup(r.Context(), in)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"group":    in.Key.String(),
			"approved": approved,
		})
	}
}

// POST /moderation/groups/reject {test_type, test_date}
func RejectGroupHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := groupInput(w, r)
		if !ok {
			return
		}
		n, err := svc.RejectGroup(r.Context(), in)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"group": in.Key.String(), "rejected": n})
	}
}

// GET /moderation/groups
func ListGroupsHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.ListGroups(r.Context())
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, groups)
	}
}

// GET /moderation/groups/members?test_type=&test_date=
func ListGroupMembersHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key, err := moderation.ParseGroupKey(q.Get("test_type"), q.Get("test_date"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		members, err := svc.ListGroupMembers(r.Context(), key)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, members)
	}
}

// POST /moderation/club-roles/{pendingID}/approve
func ApproveClubRoleHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "pendingID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		role, err := svc.ApproveClubRole(r.Context(), moderation.ItemInput{
			PendingID: id,
			Actor:     rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, role)
	}
}

// POST /moderation/club-roles/{pendingID}/reject
func RejectClubRoleHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "pendingID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		err = svc.RejectClubRole(r.Context(), moderation.ItemInput{
			PendingID: id,
			Actor:     rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"pending_id": id, "status": moderation.RoleRejected})
	}
}

// GET /moderation/club-roles
func ListPendingClubRolesHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := svc.ListPendingClubRoles(r.Context())
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, roles)
	}
}

// DELETE /moderation/clubs/{clubID}/members/{roll}
func RemoveClubRoleHandler(svc *moderation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clubID, err := idParam(r, "clubID")
		if err != nil {
			apperr.Write(w, err)
			return
		}
		roll := chi.URLParam(r, "roll")
		global, err := svc.RemoveClubRole(r.Context(), moderation.RemoveInput{
			ClubID:   clubID,
			UserRoll: roll,
			Actor:    rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"club_id": clubID, "user_roll": roll, "global_role": global})
	}
}
