package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/denuncias/internal/models"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
	"github.com/go-chi/chi/v5"
)

// StatisticsService defines the interface for the statistics views
type StatisticsService interface {
	General(ctx context.Context) (*models.GeneralStats, error)
	Period(ctx context.Context, raw string, now time.Time) (*models.PeriodStats, error)
	Ranking(ctx context.Context) ([]models.RankingEntry, error)
	HeatMap(ctx context.Context, raw string) ([]models.HeatPoint, error)
}

// StatisticsHandler serves the authority statistics views
type StatisticsHandler struct {
	service StatisticsService
	now     func() time.Time
}

// NewStatisticsHandler creates a new StatisticsHandler
func NewStatisticsHandler(service StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{
		service: service,
		now:     time.Now,
	}
}

// GeneralResponse is the general summary with recent complaints in response form
type GeneralResponse struct {
	*models.GeneralStats
	Recent []*ComplaintResponse `json:"recent"`
}

// RankingResponse wraps the authority ranking
type RankingResponse struct {
	Ranking []models.RankingEntry `json:"ranking"`
}

// HeatMapResponse wraps the heat map points
type HeatMapResponse struct {
	Points []models.HeatPoint `json:"points"`
	Total  int                `json:"total"`
}

// RegisterRoutes registers the statistics routes. The caller guards the group
// with the authority role.
func (h *StatisticsHandler) RegisterRoutes(router chi.Router) {
	router.Route("/statistics", func(r chi.Router) {
		r.Get("/general", h.General)
		r.Get("/periodo/{period}", h.Period)
		r.Get("/ranking-autoridades", h.Ranking)
		r.Get("/mapa-calor", h.HeatMap)
	})
}

// General returns the general summary
// @Router /statistics/general [get]
func (h *StatisticsHandler) General(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.General(r.Context())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	recent := make([]*ComplaintResponse, 0, len(stats.Recent))
	for _, c := range stats.Recent {
		recent = append(recent, complaintModelToResponse(c))
	}

	pkghttp.WriteJSON(w, http.StatusOK, GeneralResponse{GeneralStats: stats, Recent: recent})
}

// Period reports on the current day, week, month or year
// @Param period path string true "dia, semana, mes or ano"
// @Router /statistics/periodo/{period} [get]
func (h *StatisticsHandler) Period(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Period(r.Context(), chi.URLParam(r, "period"), h.now())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}

// Ranking returns the top authorities
// @Router /statistics/ranking-autoridades [get]
func (h *StatisticsHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Ranking(r.Context())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, RankingResponse{Ranking: ranking})
}

// HeatMap returns located complaint counts
// @Param categorias query string false "Comma-separated categories"
// @Router /statistics/mapa-calor [get]
func (h *StatisticsHandler) HeatMap(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.HeatMap(r.Context(), r.URL.Query().Get("categorias"))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HeatMapResponse{Points: points, Total: len(points)})
}
