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

type Server struct {
	Coordinator    *event.Coordinator
	Events         event.Store
	Registrations  registration.Manager
	Players        player.Store
	Ledger         ledger.Ledger
	Matches        scoring.Engine
	Metrics        metrics.Metrics
	MetricsStore   metrics.MetricsStore
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
}
