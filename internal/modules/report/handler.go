package report

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"souvenir/internal/domain"
	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler serves the reports. All routes are mounted behind the staff
// middleware; ?format=csv switches any report to a CSV download.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(staff *gin.RouterGroup) {
	reports := staff.Group("/reports")
	{
		reports.GET("/workload", h.Workload)
		reports.GET("/financial", h.Financial)
		reports.GET("/production-plan", h.ProductionPlan)
	}
}

func (h *Handler) Workload(c *gin.Context) {
	report, err := h.service.Workload(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "REPORT_FAILED", "Failed to build workload report")
		return
	}

	if c.Query("format") == "csv" {
		writeCSV(c, "workload.csv", workloadCSV(report))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

func (h *Handler) Financial(c *gin.Context) {
	from, ok := dateParam(c, "from")
	if !ok {
		return
	}
	to, ok := dateParam(c, "to")
	if !ok {
		return
	}
	if to != nil {
		// Upper bound is exclusive, so include the whole "to" day.
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	report, err := h.service.Financial(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "REPORT_FAILED", "Failed to build financial report")
		return
	}

	if c.Query("format") == "csv" {
		writeCSV(c, "financial.csv", financialCSV(report))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

func (h *Handler) ProductionPlan(c *gin.Context) {
	items, err := h.service.ProductionPlan(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "REPORT_FAILED", "Failed to build production plan")
		return
	}

	if c.Query("format") == "csv" {
		writeCSV(c, "production-plan.csv", planCSV(items))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"plan": items})
}

func dateParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("%s must be formatted as YYYY-MM-DD", name))
		return nil, false
	}
	return &t, true
}

func workloadCSV(report *WorkloadReport) [][]string {
	rows := [][]string{{"master", "status", "count"}}
	for _, mw := range report.Masters {
		name := ""
		if mw.Master != nil {
			name = mw.Master.FullName
		}
		// Walk statuses in board order so the export is deterministic.
		for _, status := range domain.OrderStatuses {
			if count := mw.ByStatus[string(status)]; count > 0 {
				rows = append(rows, []string{name, string(status), strconv.FormatInt(count, 10)})
			}
		}
		rows = append(rows, []string{name, "total", strconv.FormatInt(mw.Total, 10)})
	}
	rows = append(rows, []string{"", "unassigned", strconv.FormatInt(report.Unassigned, 10)})
	return rows
}

func financialCSV(report *FinancialReport) [][]string {
	rows := [][]string{{"status", "count", "total"}}
	for _, line := range report.ByStatus {
		rows = append(rows, []string{
			line.Status,
			strconv.FormatInt(line.Count, 10),
			strconv.FormatFloat(line.Total, 'f', 2, 64),
		})
	}
	rows = append(rows, []string{
		"total",
		strconv.FormatInt(report.OrderCount, 10),
		strconv.FormatFloat(report.GrandTotal, 'f', 2, 64),
	})
	return rows
}

func planCSV(items []PlanItem) [][]string {
	rows := [][]string{{"order_number", "product_type", "status", "deadline", "master"}}
	for _, item := range items {
		deadline := ""
		if item.Deadline != nil {
			deadline = item.Deadline.Format("2006-01-02")
		}
		master := ""
		if item.Master != nil {
			master = item.Master.FullName
		}
		rows = append(rows, []string{item.OrderNumber, item.ProductType, string(item.Status), deadline, master})
	}
	return rows
}

func writeCSV(c *gin.Context, filename string, rows [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	w := csv.NewWriter(c.Writer)
	_ = w.WriteAll(rows)
	w.Flush()
}
