package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripplanner/database"
	"tripplanner/services"
)

type PlanRequest struct {
	Origin        string   `json:"origin" binding:"required"`
	Destination   string   `json:"destination" binding:"required"`
	DepartureDate string   `json:"departure_date" binding:"required"`
	ReturnDate    string   `json:"return_date" binding:"required"`
	Modes         []string `json:"modes"`
	Adults        int      `json:"adults"`
	Budget        float64  `json:"budget"`
	MaxPerNight   float64  `json:"max_per_night"`
	AlarmMinutes  *int     `json:"alarm_minutes"`
}

type PlanResponse struct {
	PlanID      string       `json:"plan_id"`
	SearchID    string       `json:"search_id"`
	Proposal    ProposalView `json:"proposal"`
	Summary     string       `json:"summary"`
	ICS         string       `json:"ics"`
	GcalLinks   []string     `json:"gcal_links"`
	DownloadURL string       `json:"download_url"`
	PDFURL      string       `json:"pdf_url"`
}

// Plan handles single-destination planning: pick the best outbound and return
// legs and a stay, assemble one proposal and its calendar export.
func (h *Handler) Plan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Adults <= 0 {
		req.Adults = 1
	}
	alarmMin := 45
	if req.AlarmMinutes != nil && *req.AlarmMinutes >= 0 {
		alarmMin = *req.AlarmMinutes
	}

	depDay, retDay, err := parseTripDates(req.DepartureDate, req.ReturnDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	modes, err := parseModes(req.Modes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal, err := h.assembleProposal(c.Request.Context(), req.Origin, req.Destination, depDay, retDay, modes, req.Adults, req.Budget, req.MaxPerNight)
	if err != nil {
		abortForError(c, err)
		return
	}

	summary, err := h.AI.Summarize(c.Request.Context(), proposal)
	if err != nil {
		log.Printf("AI summary failed: %v — using fallback text", err)
		summary = services.FallbackSummary(proposal)
	}

	events := services.TripEvents(req.Origin, proposal, depDay, retDay)
	ics := services.MakeICS(proposal.Destination+" — trip", events, alarmMin)

	gcalLinks := make([]string, 0, len(events))
	for _, e := range events {
		gcalLinks = append(gcalLinks, services.GoogleCalendarLink(e))
	}

	pdfBytes, err := services.ProposalPDF(req.Origin, proposal, summary)
	if err != nil {
		log.Printf("PDF generation failed: %v", err)
		pdfBytes = nil
	}

	searchID := uuid.New().String()
	if err := h.Store.SaveSearch(&database.Search{
		ID:            searchID,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Budget:        req.Budget,
		Adults:        req.Adults,
	}); err != nil {
		log.Printf("Failed to save search: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save search"})
		return
	}

	proposalJSON, _ := json.Marshal(proposal)
	planID := uuid.New().String()
	if err := h.Store.SavePlan(&database.Plan{
		ID:           planID,
		SearchID:     searchID,
		ProposalJSON: string(proposalJSON),
		ICS:          ics,
		PDFData:      pdfBytes,
	}); err != nil {
		log.Printf("Failed to save plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save plan"})
		return
	}

	c.JSON(http.StatusOK, PlanResponse{
		PlanID:      planID,
		SearchID:    searchID,
		Proposal:    proposalView(proposal),
		Summary:     summary,
		ICS:         ics,
		GcalLinks:   gcalLinks,
		DownloadURL: "/api/download/" + planID,
		PDFURL:      "/api/download/" + planID + "/pdf",
	})
}
