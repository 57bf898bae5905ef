package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mahallubank/backend/internal/application/report"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	BaseHandler
	reports *report.AggregationService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *report.AggregationService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Members handles GET /reports/members with block, cluster, feePaid,
// search, from and to query filters
func (h *ReportHandler) Members(c *gin.Context) {
	filter := report.Filter{
		Block:   c.Query("block"),
		Cluster: c.Query("cluster"),
		Search:  c.Query("search"),
	}
	if raw := c.Query("feePaid"); raw != "" {
		paid := raw == "true"
		filter.FeePaid = &paid
	}

	var err error
	if filter.From, err = parseDateParam(c.Query("from")); err != nil {
		h.BadRequest(c, "invalid from date, expected YYYY-MM-DD")
		return
	}
	if filter.To, err = parseDateParam(c.Query("to")); err != nil {
		h.BadRequest(c, "invalid to date, expected YYYY-MM-DD")
		return
	}

	result, err := h.reports.MemberReport(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Fees handles GET /reports/fees
func (h *ReportHandler) Fees(c *gin.Context) {
	from, to, ok := h.dateWindow(c)
	if !ok {
		return
	}
	result, err := h.reports.FeeReport(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Bank handles GET /reports/bank
func (h *ReportHandler) Bank(c *gin.Context) {
	from, to, ok := h.dateWindow(c)
	if !ok {
		return
	}
	result, err := h.reports.BankReport(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ReportHandler) dateWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		h.BadRequest(c, "invalid from date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		h.BadRequest(c, "invalid to date, expected YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}
