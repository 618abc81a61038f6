package http

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
	"github.com/mind-engage/mindengage-clubs/internal/users"
)

// POST /users/bulk
// Accepts a multipart file= (CSV or JSON) or a raw JSON array body.
func BulkUpsertUsersHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []users.User
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				apperr.WriteStatus(w, http.StatusBadRequest, apperr.Validation("file required"))
				return
			}
			defer f.Close()
			rows, err = parseRoster(f)
			if err != nil {
				apperr.WriteStatus(w, http.StatusBadRequest, err)
				return
			}
		} else if !decodeJSON(w, r, &rows) {
			return
		}
		if len(rows) == 0 {
			respondJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := svc.BulkUpsert(r.Context(), rows)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=student
func ListUsersHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// parseRoster sniffs CSV vs JSON by the first non-space byte.
func parseRoster(f io.Reader) ([]users.User, error) {
	br := bufio.NewReader(f)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return nil, apperr.Validation("empty file")
		}
		if b[0] != ' ' && b[0] != '\n' && b[0] != '\r' && b[0] != '\t' {
			break
		}
		_, _ = br.ReadByte()
	}
	b, _ := br.Peek(1)
	if b[0] == '[' {
		var rows []users.User
		if err := json.NewDecoder(br).Decode(&rows); err != nil {
			return nil, apperr.Validation("bad json")
		}
		return rows, nil
	}
	rows, err := parseCSV(br)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "bad csv")
	}
	return rows, nil
}

func parseCSV(r io.Reader) ([]users.User, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"roll_no", "full_name"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	opt := func(rec []string, col string) string {
		if i, ok := idx[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []users.User
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, users.User{
			RollNo:   opt(rec, "roll_no"),
			FullName: opt(rec, "full_name"),
			Email:    opt(rec, "email"),
			Class:    opt(rec, "class"),
			Role:     strings.ToLower(opt(rec, "role")),
			Password: opt(rec, "password"),
		})
	}
	return rows, nil
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /me/password
func ChangePasswordHandler(svc *users.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roll := rbac.SubjectFromContext(r.Context())
		if roll == "" {
			apperr.WriteStatus(w, http.StatusUnauthorized, apperr.InvalidRequest("unauthorized"))
			return
		}
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.ChangePassword(r.Context(), roll, req.OldPassword, req.NewPassword); err != nil {
			apperr.Write(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
