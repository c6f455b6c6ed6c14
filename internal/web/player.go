package web

import (
	"net/http"
	"scrimrank/internal/back"
	"scrimrank/internal/util"
	"time"

	"github.com/go-chi/chi"
)

func (s *Server) getPlayerHistory(w http.ResponseWriter, r *http.Request) {
	playerID, err := util.ParseUUIDAsBlob(chi.URLParam(r, "id"))
	if err != nil {
		s.error(w, err, http.StatusBadRequest)
		return
	}

	league, err := back.ParseLeague(chi.URLParam(r, "league"))
	if err != nil {
		s.error(w, err, http.StatusNotFound)
		return
	}

	history, err := s.back.GetRatingHistory(r.Context(), playerID, league)
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []back.PlayerRatingHistory{}
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, history)
}
