package web

import (
	"fmt"
	"net/http"
	"scrimrank/internal/back"
	"scrimrank/internal/util"
	"strconv"
	"time"

	"github.com/go-chi/chi"
)

const (
	defaultLeaderboardLimit = 250
	maxLeaderboardLimit     = 1000
)

func (s *Server) getLeagues(w http.ResponseWriter, _ *http.Request) {
	s.cache(w, "public", 1*time.Hour)
	s.response(w, http.StatusOK, map[string]interface{}{
		"leagues":        back.Leagues(),
		"default_rating": back.DefaultRating,
	})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	league, err := back.ParseLeague(chi.URLParam(r, "league"))
	if err != nil {
		s.error(w, err, http.StatusNotFound)
		return
	}

	limit := defaultLeaderboardLimit
	if str := r.URL.Query().Get("limit"); str != "" {
		limit, err = strconv.Atoi(str)
		if err != nil || limit <= 0 || limit > maxLeaderboardLimit {
			s.error(w, util.ErrPublic(fmt.Sprintf("limit must be within 1-%d", maxLeaderboardLimit)), http.StatusBadRequest)
			return
		}
	}

	leaderboard, err := s.back.GetLeaderboard(r.Context(), league, limit)
	if err != nil {
		s.error(w, err, http.StatusInternalServerError)
		return
	}
	if leaderboard == nil {
		leaderboard = []back.LeaderboardEntry{}
	}

	s.cache(w, "public", 1*time.Minute)
	s.response(w, http.StatusOK, leaderboard)
}
