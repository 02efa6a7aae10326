package http

import (
	"github.com/go-chi/chi/v5"

	guest "github.com/mind-engage/lessonrunner/internal/auth"
	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/preference"
	"github.com/mind-engage/lessonrunner/internal/rbac"
	"github.com/mind-engage/lessonrunner/internal/session"
)

type Deps struct {
	Auth        *auth.AuthService
	Login       auth.Login
	LocalLogin  bool
	GuestLogin  bool
	SecureLogin bool // mark guest cookies Secure
	ClientTick  bool // clients drive the timer through POST /attempt/tick
	Admins      []string
	Sessions    *session.Manager
	Preferences *preference.Service
	Events      EventFeed // nil when the event log is disabled
}

// Mount registers the lesson runner routes on r.
func Mount(r chi.Router, d Deps) {
	if d.LocalLogin {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Login))
	}
	if d.GuestLogin {
		r.Post("/auth/guest", guest.GuestLoginHandler(d.Auth, d.SecureLogin))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRole(d.Admins))

		pr.With(rbac.Require(rbac.PermLessonView)).Get("/lesson", GetLessonHandler(d.Sessions))
		pr.With(rbac.Require(rbac.PermLessonRefresh)).Post("/lesson/refresh", RefreshLessonHandler(d.Sessions))

		pr.Route("/attempt", func(ar chi.Router) {
			ar.Use(rbac.Require(rbac.PermAttemptPlay))
			ar.Get("/", GetAttemptHandler(d.Sessions))
			ar.Post("/start", StartAttemptHandler(d.Sessions))
			ar.Post("/answers", SubmitAnswerHandler(d.Sessions))
			ar.Delete("/answers/{exerciseID}", RetractHandler(d.Sessions))
			ar.Post("/advance", AdvanceHandler(d.Sessions))
			if d.ClientTick {
				ar.Post("/tick", TickHandler(d.Sessions))
			} else {
				ar.Post("/tick", ServerTickedHandler())
			}
			ar.Post("/restart", RestartHandler(d.Sessions))
		})

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsRead)).Get("/events", ListEventsHandler(d.Events))
		}

		pr.Route("/preferences/language", func(lr chi.Router) {
			lr.Use(rbac.Require(rbac.PermPreferenceEdit))
			lr.Get("/", GetLanguageHandler(d.Preferences))
			lr.Put("/", PutLanguageHandler(d.Preferences))
		})
	})
}
