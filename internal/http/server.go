package http

import (
	"net/http"

	"github.com/matchpoint-club/matchpoint/internal/config"
	"github.com/matchpoint-club/matchpoint/internal/event"
	"github.com/matchpoint-club/matchpoint/internal/ledger"
	"github.com/matchpoint-club/matchpoint/internal/metrics"
	"github.com/matchpoint-club/matchpoint/internal/player"
	"github.com/matchpoint-club/matchpoint/internal/registration"
	"github.com/matchpoint-club/matchpoint/internal/scoring"
)

func NewServer(
	coordinator *event.Coordinator,
	events event.Store,
	registrations registration.Manager,
	players player.Store,
	l ledger.Ledger,
	matches scoring.Engine,
	metricsSvc metrics.Metrics,
	metricsStore metrics.MetricsStore,
	metricsHandler http.Handler,
	cfg config.Config,
) *Server {
	server := &Server{
		Coordinator:    coordinator,
		Events:         events,
		Registrations:  registrations,
		Players:        players,
		Ledger:         l,
		Matches:        matches,
		Metrics:        metricsSvc,
		MetricsStore:   metricsStore,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/stats", Chain(s.StatsHandler(), paramsMiddleware))

	s.Router.Handle("/events", Chain(s.EventsHandler(), paramsMiddleware))
	s.Router.Handle("/events/publish", Chain(s.PublishEventHandler(), paramsMiddleware))
	s.Router.Handle("/events/start", Chain(s.StartEventHandler(), paramsMiddleware))
	s.Router.Handle("/events/cancel", Chain(s.CancelEventHandler(), paramsMiddleware))
	s.Router.Handle("/events/end", Chain(s.EndEventHandler(), paramsMiddleware))
	s.Router.Handle("/events/roster", Chain(s.RosterHandler(), paramsMiddleware))
	s.Router.Handle("/events/stats", Chain(s.EventStatsHandler(), paramsMiddleware))
	s.Router.Handle("/events/schedule-match", Chain(s.ScheduleMatchHandler(), paramsMiddleware))

	s.Router.Handle("/register", Chain(s.RegisterHandler(), paramsMiddleware, identityMiddleware))
	s.Router.Handle("/cancel-registration", Chain(s.CancelRegistrationHandler(), paramsMiddleware, identityMiddleware))
	s.Router.Handle("/sign-in", Chain(s.SignInHandler(), paramsMiddleware, identityMiddleware))
	s.Router.Handle("/approve-registration", Chain(s.ApproveRegistrationHandler(), paramsMiddleware))
	s.Router.Handle("/reject-registration", Chain(s.RejectRegistrationHandler(), paramsMiddleware))

	s.Router.Handle("/matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("/matches/start", Chain(s.StartMatchHandler(), paramsMiddleware))
	s.Router.Handle("/matches/record-point", Chain(s.RecordPointHandler(), paramsMiddleware))
	s.Router.Handle("/matches/abandon", Chain(s.AbandonMatchHandler(), paramsMiddleware))

	s.Router.Handle("/ledger/history", Chain(s.LedgerHistoryHandler(), paramsMiddleware, identityMiddleware))
	s.Router.Handle("/ledger/balance", Chain(s.BalanceHandler(), paramsMiddleware, identityMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard/announce", Chain(s.AnnounceLeaderboardHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
