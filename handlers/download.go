package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DownloadICS serves the stored calendar file for a plan.
func (h *Handler) DownloadICS(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing plan ID"})
		return
	}

	plan, err := h.Store.GetPlan(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if plan.ICS == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No calendar stored for this plan"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tripplanner_"+id+".ics")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(plan.ICS))
}

// DownloadPDF serves the stored itinerary PDF for a plan.
func (h *Handler) DownloadPDF(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing plan ID"})
		return
	}

	plan, err := h.Store.GetPlan(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if len(plan.PDFData) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No PDF generated for this plan"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=tripplanner-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", plan.PDFData)
}
