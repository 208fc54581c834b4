package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmetso/tasklist/internal/model"
	"github.com/jmetso/tasklist/internal/service"
)

// UserDirectory authenticates incoming requests against stored
// accounts.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*model.UserAccount, error)
}

// Server exposes the task list REST API.
type Server struct {
	addr    string
	tasks   *service.TaskService
	users   UserDirectory
	version string
}

func New(addr string, tasks *service.TaskService, users UserDirectory, version string) *Server {
	return &Server{addr: addr, tasks: tasks, users: users, version: version}
}

// Handler builds the full route tree. Exposed separately so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// The hash helper is the one endpoint usable before any
		// account exists.
		r.Get("/password/generate/{password}", s.generatePassword)

		r.Group(func(r chi.Router) {
			r.Use(s.basicAuth)

			read := s.requireRoles(model.RoleAdmin, model.RoleUser, model.RoleView)
			write := s.requireRoles(model.RoleAdmin, model.RoleUser)

			r.With(read).Get("/items", s.getItems)
			r.With(read).Get("/user", s.getUser)
			r.With(read).Get("/version", s.getVersion)

			r.With(write).Get("/new", s.newList)
			r.With(write).Post("/items/add", s.addItem)
			r.With(write).Post("/items/{id}/update", s.updateItem)
			r.With(write).Get("/items/{id}/done", s.markItemDone)
			r.With(write).Get("/items/{id}/activate", s.activateItem)
			r.With(write).Get("/items/{id}/deactivate", s.deactivateItem)
			r.With(write).Get("/items/{id}/delete", s.deleteItem)
		})
	})

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down HTTP server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
