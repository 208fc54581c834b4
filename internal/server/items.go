package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmetso/tasklist/internal/model"
	"github.com/jmetso/tasklist/internal/service"
)

func (s *Server) getItems(w http.ResponseWriter, r *http.Request) {
	user := principal(r)
	tasks, err := s.tasks.List(r.Context(), user.Username)
	if err != nil {
		if errors.Is(err, service.ErrNoList) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		serverError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var task model.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}

	user := principal(r)
	id, err := s.tasks.Add(r.Context(), user.Username, &task)
	if err != nil {
		if errors.Is(err, service.ErrNoList) {
			respondJSON(w, http.StatusBadRequest, -1)
			return
		}
		serverError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, id)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var task model.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "invalid task payload", http.StatusBadRequest)
		return
	}

	user := principal(r)
	if err := s.tasks.Update(r.Context(), user.Username, id, &task); err != nil {
		taskError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) markItemDone(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tasks.MarkDone)
}

func (s *Server) activateItem(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tasks.Activate)
}

func (s *Server) deactivateItem(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.tasks.Deactivate)
}

// transition runs one of the completion-state operations and maps its
// errors onto status codes.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, username string, id uint) (*model.Task, error)) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	user := principal(r)
	if _, err := op(r.Context(), user.Username, id); err != nil {
		taskError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, true)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	user := principal(r)
	if err := s.tasks.Delete(r.Context(), user.Username, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondJSON(w, http.StatusNotFound, false)
		case errors.Is(err, service.ErrNoList):
			respondJSON(w, http.StatusBadRequest, false)
		default:
			serverError(w, err)
		}
		return
	}
	respondJSON(w, http.StatusOK, true)
}

func (s *Server) newList(w http.ResponseWriter, r *http.Request) {
	user := principal(r)
	if _, err := s.tasks.CreateList(r.Context(), user.Username); err != nil {
		respondJSON(w, http.StatusBadRequest, false)
		return
	}
	respondJSON(w, http.StatusOK, true)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"user": principal(r).Username})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) generatePassword(w http.ResponseWriter, r *http.Request) {
	hash, err := bcrypt.GenerateFromPassword([]byte(chi.URLParam(r, "password")), 12)
	if err != nil {
		serverError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(hash)
}

func itemID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// taskError maps service errors onto the API's status codes.
func taskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, service.ErrNoList), errors.Is(err, service.ErrInvalidTransition):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	default:
		serverError(w, err)
	}
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("request failed: %v", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
