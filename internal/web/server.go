package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"scrimrank/internal/back"
	"scrimrank/internal/config"
	"scrimrank/internal/util"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Engine is what the HTTP API needs from the Back.
type Engine interface {
	ProcessMatch(ctx context.Context, matchID util.UUIDAsBlob) (back.Outcome, error)
	GetLeaderboard(ctx context.Context, league back.League, limit int) ([]back.LeaderboardEntry, error)
	GetRatingHistory(ctx context.Context, playerID util.UUIDAsBlob, league back.League) ([]back.PlayerRatingHistory, error)
	GetMatch(ctx context.Context, id util.UUIDAsBlob) (back.Match, []back.Participant, error)
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)

	r.Get("/v1/leagues", s.getLeagues)
	r.Get("/v1/league/{league}/leaderboard", s.getLeaderboard)
	r.Get("/v1/player/{id}/history/{league}", s.getPlayerHistory)
	r.Get("/v1/match/{id}", s.getMatch)
	r.With(s.signed).Post("/v1/match/{id}/rate", s.rateMatch)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return r
}

type Server struct {
	http    *http.Server
	back    Engine
	conf    *config.Config
	metrics http.Handler
}

// NewServer creates the HTTP API, metrics is served on /metrics if not nil.
func NewServer(back Engine, conf *config.Config, metrics http.Handler) *Server {
	s := &Server{
		back:    back,
		conf:    conf,
		metrics: metrics,
	}

	s.http = &http.Server{
		Addr:         conf.WebListenAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: conf.ProcessTimeout.Duration() + 5*time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Serve listens until done is closed. The caller must have added 1 to wg.
func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	defer wg.Done()
	log.Printf("info: starting HTTP server on %s", s.http.Addr)

	go func() {
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), s.http.WriteTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

// error replies with the error message if it is public, the status text
// otherwise.
func (s *Server) error(w http.ResponseWriter, err error, code int) {
	if code >= http.StatusInternalServerError {
		log.Printf("error: %s", err)
	} else {
		log.Printf("debug: %d: %s", code, err)
	}

	msg := http.StatusText(code)
	if util.IsPublic(err) {
		msg = err.Error()
	}

	s.response(w, code, map[string]string{"error": msg})
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}
