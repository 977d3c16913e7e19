package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripplanner/planner"
)

const calendarTZID = "Europe/Rome"

// Event is one itinerary milestone rendered into the calendar export.
type Event struct {
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	URL      string
	Notes    string
}

// TripEvents derives the fixed event sequence for a proposal: departure,
// check-in, check-out, return.
func TripEvents(origin string, p planner.Proposal, departDay, returnDay time.Time) []Event {
	stayName := "Accommodation in " + p.Destination
	stayLocation := p.Destination
	stayURL := ""
	stayNotes := fmt.Sprintf("Estimated €%.0f/night", p.PerNight)
	if p.Lodging != nil {
		stayName = p.Lodging.Name
		stayLocation = p.Lodging.Location
		stayURL = p.Lodging.URL
		stayNotes = fmt.Sprintf("€%.0f/night · Rating %.1f/5", p.Lodging.PricePerNight, p.Lodging.Rating)
	}

	at := func(day time.Time, hour, min int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
	}

	return []Event{
		{
			Title:    fmt.Sprintf("Departure %s → %s (%s)", origin, p.Destination, p.Outbound.Provider),
			Start:    p.Outbound.Departure,
			End:      p.Outbound.Arrival,
			Location: origin,
			Notes:    fmt.Sprintf("%s · €%.0f · %s", p.Outbound.Mode, p.Outbound.Price, p.Outbound.Notes),
		},
		{
			Title:    "Check-in " + stayName,
			Start:    at(departDay, 15, 0),
			End:      at(departDay, 16, 0),
			Location: stayLocation,
			URL:      stayURL,
			Notes:    stayNotes,
		},
		{
			Title:    "Check-out " + stayName,
			Start:    at(returnDay, 11, 0),
			End:      at(returnDay, 11, 30),
			Location: stayLocation,
			URL:      stayURL,
		},
		{
			Title:    fmt.Sprintf("Return %s → %s (%s)", p.Destination, origin, p.Return.Provider),
			Start:    p.Return.Departure,
			End:      p.Return.Arrival,
			Location: p.Destination,
			Notes:    fmt.Sprintf("%s · €%.0f · %s", p.Return.Mode, p.Return.Price, p.Return.Notes),
		},
	}
}

// ─── ICS ──────────────────────────────────────────────────────────────────────

var vtimezoneEuropeRome = strings.Join([]string{
	"BEGIN:VTIMEZONE",
	"TZID:Europe/Rome",
	"X-LIC-LOCATION:Europe/Rome",
	"BEGIN:DAYLIGHT",
	"TZOFFSETFROM:+0100",
	"TZOFFSETTO:+0200",
	"TZNAME:CEST",
	"DTSTART:19700329T020000",
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
	"END:DAYLIGHT",
	"BEGIN:STANDARD",
	"TZOFFSETFROM:+0200",
	"TZOFFSETTO:+0100",
	"TZNAME:CET",
	"DTSTART:19701025T030000",
	"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
	"END:STANDARD",
	"END:VTIMEZONE",
}, "\r\n")

func escapeICS(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(text)
}

func fmtICS(t time.Time) string {
	return t.Format("20060102T150405")
}

// MakeICS renders events as an iCalendar document. alarmMin > 0 attaches a
// display alarm that many minutes before each event.
func MakeICS(title string, events []Event, alarmMin int) string {
	nowUTC := time.Now().UTC().Format("20060102T150405Z")
	lines := []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//TripPlanner//Transport+Lodging//EN",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + escapeICS(title),
		"X-WR-TIMEZONE:" + calendarTZID,
		vtimezoneEuropeRome,
	}

	for _, e := range events {
		lines = append(lines,
			"BEGIN:VEVENT",
			fmt.Sprintf("UID:%s@tripplanner", uuid.New()),
			"DTSTAMP:"+nowUTC,
			fmt.Sprintf("DTSTART;TZID=%s:%s", calendarTZID, fmtICS(e.Start)),
			fmt.Sprintf("DTEND;TZID=%s:%s", calendarTZID, fmtICS(e.End)),
			"SUMMARY:"+escapeICS(e.Title),
		)
		if e.Location != "" {
			lines = append(lines, "LOCATION:"+escapeICS(e.Location))
		}
		var desc []string
		if e.Notes != "" {
			desc = append(desc, e.Notes)
		}
		if e.URL != "" {
			desc = append(desc, "Link: "+e.URL)
		}
		if len(desc) > 0 {
			lines = append(lines, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n")))
		}
		if alarmMin > 0 {
			lines = append(lines,
				"BEGIN:VALARM",
				fmt.Sprintf("TRIGGER:-PT%dM", alarmMin),
				"ACTION:DISPLAY",
				"DESCRIPTION:Reminder",
				"END:VALARM",
			)
		}
		lines = append(lines, "END:VEVENT")
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// GoogleCalendarLink renders the calendar.google.com add-event template URL.
func GoogleCalendarLink(e Event) string {
	q := url.Values{}
	q.Set("text", e.Title)
	q.Set("dates", fmtICS(e.Start)+"/"+fmtICS(e.End))
	q.Set("details", e.Notes)
	q.Set("location", e.Location)
	return "https://calendar.google.com/calendar/render?action=TEMPLATE&" + q.Encode()
}
