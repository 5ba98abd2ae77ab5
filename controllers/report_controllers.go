package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/office/restobook/services"
	"github.com/office/restobook/utils"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

// GetDailyReport -> sales/expense summary for [start, end]. With
// ?format=text the rendered tables come back as plain text.
func (rc *ReportController) GetDailyReport(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	report, err := rc.Reports.DailyReport(c.Request.Context(), start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if c.Query("format") == "text" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(rc.Reports.RenderText(report)))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily report", report)
}
