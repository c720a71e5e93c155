package admin

import (
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Handler holds all dependencies for the admin API handlers.
type Handler struct {
	cfg      *config.Config
	db       *gorm.DB
	service  *contest.Service
	gatherer prometheus.Gatherer
}

// NewHandler creates a new admin handler with its dependencies.
func NewHandler(
	cfg *config.Config,
	db *gorm.DB,
	service *contest.Service,
	gatherer prometheus.Gatherer,
) *Handler {
	return &Handler{
		cfg:      cfg,
		db:       db,
		service:  service,
		gatherer: gatherer,
	}
}
