package web

import (
	"database/sql"
	"errors"
	"net/http"
	"scrimrank/internal/back"
	"scrimrank/internal/config"
	"scrimrank/internal/util"

	"github.com/go-chi/chi"
)

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := util.ParseUUIDAsBlob(chi.URLParam(r, "id"))
	if err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}

	match, participants, err := s.back.GetMatch(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		s.error(w, back.ErrMatchNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	s.response(w, http.StatusOK, map[string]interface{}{
		"match":        match,
		"participants": participants,
	})
}

// rateMatch is the explicit trigger, it processes the match synchronously.
func (s *Server) rateMatch(w http.ResponseWriter, r *http.Request) {
	id, err := util.ParseUUIDAsBlob(chi.URLParam(r, "id"))
	if err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}

	outcome, err := s.back.ProcessMatch(r.Context(), id)
	if err != nil {
		s.error(w, err, statusFromProcessError(err))
		return
	}

	s.response(w, http.StatusOK, map[string]back.Outcome{"outcome": outcome})
}

func statusFromProcessError(err error) int {
	switch {
	case errors.Is(err, back.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, back.ErrInvalidMatchState), errors.Is(err, back.ErrMissingWinner):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// signed rejects requests whose path and query were not signed with the web
// token or whose signature expired.
func (s *Server) signed(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.conf.CheckPath(r.URL.RequestURI())
		switch {
		case err == nil:
			h.ServeHTTP(w, r)
		case errors.Is(err, config.ErrInvalidSignature), errors.Is(err, config.ErrTokenExpired):
			s.error(w, util.ErrPublic(err.Error()), http.StatusForbidden)
		default:
			s.error(w, err, http.StatusInternalServerError)
		}
	})
}
