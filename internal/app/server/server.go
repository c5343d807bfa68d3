package server

import (
	"log/slog"
	"net/http"
	"time"

	"edulive/internal/app/server/handlers"
	"edulive/internal/core/services"
	"edulive/pkg/middleware"
)

type Server struct {
	log         *slog.Logger
	mux         *http.ServeMux
	addr        string
	name        string
	authHandler *handlers.AuthHandler
	hubHandler  *handlers.HubHandler
	apiHandler  *handlers.APIHandler
	tokenSvc    *services.TokenService
}

func NewServer(
	log *slog.Logger,
	name string,
	addr string,
	tokenSvc *services.TokenService,
	authHandler *handlers.AuthHandler,
	hubHandler *handlers.HubHandler,
	apiHandler *handlers.APIHandler,
) *Server {
	s := &Server{
		log:         log,
		mux:         http.NewServeMux(),
		addr:        addr,
		name:        name,
		authHandler: authHandler,
		hubHandler:  hubHandler,
		apiHandler:  apiHandler,
		tokenSvc:    tokenSvc,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	logging := middleware.RequestLogger(s.log)
	tracing := middleware.TracerMiddleware(s.name)
	auth := middleware.AuthMiddleware(s.tokenSvc)

	wrap := func(h http.HandlerFunc) http.Handler {
		return tracing(logging(h))
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return tracing(logging(auth(h)))
	}

	// Public
	s.mux.Handle("POST /auth/token", wrap(s.authHandler.IssueToken))

	// Hub endpoint does its own token handling: the browser WebSocket API
	// cannot set an Authorization header, and unauthenticated connections
	// are admitted by design.
	s.mux.Handle("/hub", wrap(s.hubHandler.Handler))

	// Protected REST write path
	s.mux.Handle("POST /api/rooms/{room}/messages", protected(s.apiHandler.CreateMessage))
	s.mux.Handle("GET /api/rooms/{room}/messages", protected(s.apiHandler.ListMessages))
	s.mux.Handle("PUT /api/messages/{id}", protected(s.apiHandler.UpdateMessage))
	s.mux.Handle("DELETE /api/messages/{id}", protected(s.apiHandler.DeleteMessage))

	s.mux.Handle("POST /api/notes", protected(s.apiHandler.CreateNote))
	s.mux.Handle("PUT /api/notes/{id}", protected(s.apiHandler.UpdateNote))
	s.mux.Handle("DELETE /api/notes/{id}", protected(s.apiHandler.DeleteNote))
	s.mux.Handle("GET /api/students/{studentId}/lessons/{lessonId}/notes", protected(s.apiHandler.ListNotes))

	s.mux.Handle("PUT /api/progress", protected(s.apiHandler.SaveProgress))
	s.mux.Handle("POST /api/progress/position", protected(s.apiHandler.RecordPosition))
	s.mux.Handle("GET /api/students/{studentId}/lessons/{lessonId}/progress", protected(s.apiHandler.GetProgress))

	s.mux.Handle("GET /api/rooms/{room}/presence", protected(s.apiHandler.RoomPresence))
}

func (s *Server) Start() error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
		// No Read/WriteTimeout: the hub endpoint holds connections open
		// indefinitely. Header reads still get a bound.
		ReadHeaderTimeout: 15 * time.Second,
	}

	s.log.Info("server - starting", "addr", s.addr)
	return server.ListenAndServe()
}
