package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"tripplanner/planner"
)

// ProposalPDF renders a proposal as a printable itinerary document.
func ProposalPDF(origin string, p planner.Proposal, summary string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Header bar
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "TripPlanner", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Transport + Lodging Proposal", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	legText := func(leg planner.TransportOption) string {
		return fmt.Sprintf("%s %s · %s → %s · %d min · %d transfer(s) · EUR %.0f",
			leg.Mode, leg.Provider,
			leg.Departure.Format("02 Jan 15:04"), leg.Arrival.Format("15:04"),
			leg.DurationMin, leg.Transfers, leg.Price)
	}

	sectionHeader("Trip Overview")
	row("Route", fmt.Sprintf("%s -> %s -> %s", origin, p.Destination, origin))
	row("Nights", fmt.Sprintf("%d", p.Nights))
	row("Generated", time.Now().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	sectionHeader("Transport")
	row("Outbound", legText(p.Outbound))
	row("Return", legText(p.Return))
	pdf.Ln(4)

	sectionHeader("Lodging")
	if p.Lodging != nil {
		row("Stay", p.Lodging.Name)
		row("Location", p.Lodging.Location)
		row("Rating", fmt.Sprintf("%.1f / 5.0 (%d reviews)", p.Lodging.Rating, p.Lodging.Reviews))
		row("Price", fmt.Sprintf("EUR %.0f/night x %d nights = EUR %.0f",
			p.Lodging.PricePerNight, p.Nights, p.Lodging.PricePerNight*float64(p.Nights)))
	} else {
		row("Stay", "No priced offer — seasonal estimate")
		row("Estimate", fmt.Sprintf("EUR %.0f/night x %d nights = EUR %.0f",
			p.PerNight, p.Nights, p.PerNight*float64(p.Nights)))
	}
	pdf.Ln(4)

	sectionHeader("Cost Estimate")
	row("Outbound leg", fmt.Sprintf("EUR %.0f", p.Outbound.Price))
	row("Return leg", fmt.Sprintf("EUR %.0f", p.Return.Price))
	row("Lodging", fmt.Sprintf("EUR %.0f", p.PerNight*float64(p.Nights)))

	pdf.SetFillColor(212, 168, 67)
	pdf.SetTextColor(13, 24, 37)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, "TOTAL ESTIMATE", "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, fmt.Sprintf("EUR %.0f", p.Total), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)

	if p.Budget > 0 {
		state := "within budget"
		if !p.UnderBudget {
			state = "OVER BUDGET"
		}
		row("Budget", fmt.Sprintf("EUR %.0f (%s)", p.Budget, state))
	}
	pdf.Ln(4)

	if summary != "" {
		sectionHeader("Summary")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, summary, "", "L", false)
		pdf.Ln(4)
	}

	// Footer
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated by TripPlanner · Not a booking confirmation · Prices are estimates",
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}
