package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/attempt"
	auth "github.com/mind-engage/mindengage-clubs/internal/auth/middleware"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/delivery"
	"github.com/mind-engage/mindengage-clubs/internal/intake"
	"github.com/mind-engage/mindengage-clubs/internal/logging"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
	"github.com/mind-engage/mindengage-clubs/internal/reports"
	"github.com/mind-engage/mindengage-clubs/internal/users"
)

// Deps is everything the router mounts.
type Deps struct {
	Log         logrus.FieldLogger
	DB          *db.DB
	Auth        *auth.AuthService
	CSRF        *auth.CSRF
	CORSOrigins []string
	// keep the JWT role when users has no row for the subject
	AllowClaimRoleFallback bool
	Timeout                time.Duration

	Moderation *moderation.Service
	Delivery   *delivery.Service
	Attempts   *attempt.Service
	Intake     *intake.Service
	Reports    *reports.Service
	Users      *users.Service
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Timeout == 0 {
		d.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", auth.CSRFHeader},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.SQL.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users))

	// Protected API (JWT → role from users → CSRF on unsafe methods → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.DB.SQL, d.AllowClaimRoleFallback))
		pr.Use(auth.CSRFMiddleware(d.CSRF))

		pr.Get("/auth/csrf", auth.CSRFTokenHandler(d.CSRF))
		pr.With(rbac.Require("user:change_password")).
			Post("/me/password", ChangePasswordHandler(d.Users))

		// Test taking
		pr.With(rbac.Require("test:take")).
			Get("/tests/resolve", ResolveTestHandler(d.Delivery))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts", SubmitAttemptHandler(d.Attempts))

		// Clubs and intake; club membership is checked by the services
		pr.With(rbac.Require("club:list")).
			Get("/clubs", ListClubsHandler(d.Intake))
		pr.With(rbac.Require("club:create")).
			Post("/clubs", CreateClubHandler(d.Intake))
		pr.With(rbac.Require("question:post")).
			Post("/clubs/{clubID}/questions", PostQuestionsHandler(d.Intake))
		pr.With(rbac.Require("test:create")).
			Post("/clubs/{clubID}/tests", CreateTestHandler(d.Intake))
		pr.With(rbac.Require("club_role:request")).
			Post("/clubs/{clubID}/roles", RequestClubRoleHandler(d.Intake))
		pr.With(rbac.Require("test:toggle")).
			Put("/tests/{testID}/active", SetTestActiveHandler(d.Intake))

		// Moderation (admin)
		pr.Route("/moderation", func(mr chi.Router) {
			mr.Use(rbac.Require("moderation:review"))
			mr.Get("/groups", ListGroupsHandler(d.Moderation))
			mr.Get("/groups/members", ListGroupMembersHandler(d.Moderation))
			mr.Post("/groups/approve", ApproveGroupHandler(d.Moderation))
			mr.Post("/groups/reject", RejectGroupHandler(d.Moderation))
			mr.Post("/questions/{pendingID}/approve", ApproveQuestionHandler(d.Moderation))
			mr.Post("/questions/{pendingID}/reject", RejectQuestionHandler(d.Moderation))
			mr.Get("/club-roles", ListPendingClubRolesHandler(d.Moderation))
			mr.Post("/club-roles/{pendingID}/approve", ApproveClubRoleHandler(d.Moderation))
			mr.Post("/club-roles/{pendingID}/reject", RejectClubRoleHandler(d.Moderation))
			mr.Delete("/clubs/{clubID}/members/{roll}", RemoveClubRoleHandler(d.Moderation))
		})

		// Reports
		pr.With(rbac.Require("report:all")).
			Get("/reports/overall", OverallReportHandler(d.Reports))
		pr.With(rbac.RequireAny("report:club", "report:all")).
			Get("/clubs/{clubID}/tests/{testID}/results", TestResultsHandler(d.Reports))
		pr.With(rbac.Require("report:own"), rbac.RequireOwnerOr("report:all", isSelf)).
			Get("/users/{roll}/history", UserHistoryHandler(d.Reports))

		// Users (admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", BulkUpsertUsersHandler(d.Users))
		pr.With(rbac.Require("users:list")).
			Get("/users", ListUsersHandler(d.Users))
		pr.With(rbac.Require("users:list")).
			Get("/admin/users/{roll}/derived-role", DerivedRoleHandler(d.Moderation))
		pr.With(rbac.Require("events:read")).
			Get("/admin/events", ListEventsHandler(d.DB))
	})

	return r
}
