package handler

import (
	"strconv"

	"moroccoin-backoffice/internal/adapter/http/dto"
	"moroccoin-backoffice/internal/core/ports"
	"moroccoin-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the dashboard statistics endpoints.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.DashboardStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DashboardStatsResponse{
		Users: dto.UserStatsResponse{
			Total:    stats.Users.Total,
			Active:   stats.Users.Active,
			Verified: stats.Users.Verified,
			Recent:   stats.Users.Recent,
		},
		Transactions: dto.TransactionStatsResponse{
			Total:       stats.Transactions.Total,
			Completed:   stats.Transactions.Completed,
			Pending:     stats.Transactions.Pending,
			Failed:      stats.Transactions.Failed,
			Refunded:    stats.Transactions.Refunded,
			Recent:      stats.Transactions.Recent,
			TotalVolume: stats.Transactions.TotalVolume,
			TotalFees:   stats.Transactions.TotalFees,
		},
		Refunds: dto.RefundStatsResponse{
			Total:   stats.Refunds.Total,
			Pending: stats.Refunds.Pending,
		},
		Currency: stats.Currency,
	})
}

// GetChart handles GET /api/v1/dashboard/chart?days=N.
func (h *DashboardHandler) GetChart(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	points, err := h.reportingSvc.ChartData(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ChartPointResponse, 0, len(points))
	for _, p := range points {
		items = append(items, dto.ChartPointResponse{
			Date:         p.Date.UTC().Format("2006-01-02"),
			Transactions: p.Transactions,
			Volume:       p.Volume,
		})
	}

	response.OK(c, items)
}
