package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"tripplanner/planner"
)

// Transport and lodging lookups go through explicit ordered source chains:
// each source is tried in sequence and the first one returning at least one
// option wins. Which fallbacks exist, and in what order, is decided when the
// chain is assembled — not by nested error handling at the call site.

// ─── Transport sources ────────────────────────────────────────────────────────

type TransportSource struct {
	Name   string
	Search func(ctx context.Context, origin, dest string, day time.Time, adults int) ([]planner.TransportOption, error)
}

type TransportChain []TransportSource

// Search tries each source in order. A failing or empty source is logged and
// skipped; an exhausted chain reports planner.ErrNoOptions.
func (chain TransportChain) Search(ctx context.Context, origin, dest string, day time.Time, adults int) ([]planner.TransportOption, error) {
	for _, src := range chain {
		opts, err := src.Search(ctx, origin, dest, day, adults)
		if err != nil {
			log.Printf("transport source %s failed for %s-%s: %v", src.Name, origin, dest, err)
			continue
		}
		if len(opts) > 0 {
			return opts, nil
		}
	}
	return nil, fmt.Errorf("%s to %s: %w", origin, dest, planner.ErrNoOptions)
}

// TransportProviders holds one chain per transport mode.
type TransportProviders struct {
	Flight TransportChain
	Train  TransportChain
	Drive  TransportChain
}

// NewTransportProviders assembles the default chains. Live flight search runs
// first when an Amadeus client is configured; the deterministic heuristic
// sources cover everything else.
func NewTransportProviders(amadeus *AmadeusClient) TransportProviders {
	flight := TransportChain{}
	if amadeus != nil {
		flight = append(flight, TransportSource{
			Name: "amadeus",
			Search: func(ctx context.Context, origin, dest string, day time.Time, adults int) ([]planner.TransportOption, error) {
				return amadeus.SearchFlights(ctx, origin, dest, day.Format("2006-01-02"), adults)
			},
		})
	}
	flight = append(flight, TransportSource{Name: "heuristic-flights", Search: heuristicFlights})

	return TransportProviders{
		Flight: flight,
		Train:  TransportChain{{Name: "heuristic-trains", Search: heuristicTrains}},
		Drive:  TransportChain{{Name: "heuristic-drive", Search: heuristicDrive}},
	}
}

func (p TransportProviders) chainFor(mode planner.Mode) TransportChain {
	switch mode {
	case planner.ModeFlight:
		return p.Flight
	case planner.ModeTrain:
		return p.Train
	case planner.ModeDrive:
		return p.Drive
	}
	return nil
}

// Options merges the options of every allowed mode. A mode whose chain comes
// up empty is skipped; the merged list being empty is the error case.
func (p TransportProviders) Options(ctx context.Context, origin, dest string, day time.Time, modes []planner.Mode, adults int) ([]planner.TransportOption, error) {
	var merged []planner.TransportOption
	for _, mode := range modes {
		chain := p.chainFor(mode)
		if chain == nil {
			continue
		}
		opts, err := chain.Search(ctx, origin, dest, day, adults)
		if err != nil {
			log.Printf("no %s options for %s-%s: %v", mode, origin, dest, err)
			continue
		}
		merged = append(merged, opts...)
	}
	if len(merged) == 0 {
		return nil, fmt.Errorf("%s to %s: %w", origin, dest, planner.ErrNoOptions)
	}
	return merged, nil
}

// ─── Lodging sources ──────────────────────────────────────────────────────────

type LodgingSource struct {
	Name   string
	Search func(ctx context.Context, city string, checkIn, checkOut time.Time, adults int, maxPerNight float64) ([]planner.LodgingOption, error)
}

type LodgingChain []LodgingSource

func (chain LodgingChain) Search(ctx context.Context, city string, checkIn, checkOut time.Time, adults int, maxPerNight float64) ([]planner.LodgingOption, error) {
	for _, src := range chain {
		opts, err := src.Search(ctx, city, checkIn, checkOut, adults, maxPerNight)
		if err != nil {
			log.Printf("lodging source %s failed for %s: %v", src.Name, city, err)
			continue
		}
		if len(opts) > 0 {
			return opts, nil
		}
	}
	return nil, fmt.Errorf("lodging in %s: %w", city, planner.ErrNoOptions)
}

func NewLodgingChain(amadeus *AmadeusClient) LodgingChain {
	chain := LodgingChain{}
	if amadeus != nil {
		chain = append(chain, LodgingSource{
			Name: "amadeus",
			Search: func(ctx context.Context, city string, checkIn, checkOut time.Time, adults int, maxPerNight float64) ([]planner.LodgingOption, error) {
				nights := int(checkOut.Sub(checkIn).Hours() / 24)
				opts, err := amadeus.SearchHotels(ctx, city, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"), adults, nights)
				if err != nil {
					return nil, err
				}
				return filterByNightlyBudget(opts, maxPerNight), nil
			},
		})
	}
	chain = append(chain, LodgingSource{Name: "heuristic-lodging", Search: heuristicLodging})
	return chain
}

func filterByNightlyBudget(opts []planner.LodgingOption, maxPerNight float64) []planner.LodgingOption {
	if maxPerNight <= 0 {
		return opts
	}
	kept := opts[:0]
	for _, o := range opts {
		if o.PricePerNight <= maxPerNight {
			kept = append(kept, o)
		}
	}
	return kept
}

// ─── Heuristic catalogs ───────────────────────────────────────────────────────

// Deterministic demo data: realistic shapes, fixed values, no network.

func heuristicFlights(_ context.Context, origin, dest string, day time.Time, _ int) ([]planner.TransportOption, error) {
	base := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, day.Location())
	return []planner.TransportOption{
		{Mode: planner.ModeFlight, Provider: "ITA Airways", Departure: base, Arrival: base.Add(2*time.Hour + 25*time.Minute), Price: 79, DurationMin: 145, Transfers: 0, Notes: "Direct"},
		{Mode: planner.ModeFlight, Provider: "Ryanair", Departure: base.Add(6 * time.Hour), Arrival: base.Add(8*time.Hour + 35*time.Minute), Price: 39, DurationMin: 155, Transfers: 0, Notes: "Direct"},
		{Mode: planner.ModeFlight, Provider: "Lufthansa", Departure: base.Add(1 * time.Hour), Arrival: base.Add(4*time.Hour + 40*time.Minute), Price: 129, DurationMin: 220, Transfers: 1, Notes: "1 stop FRA"},
	}, nil
}

func heuristicTrains(_ context.Context, origin, dest string, day time.Time, _ int) ([]planner.TransportOption, error) {
	base := time.Date(day.Year(), day.Month(), day.Day(), 7, 30, 0, 0, day.Location())
	return []planner.TransportOption{
		{Mode: planner.ModeTrain, Provider: "Frecciarossa", Departure: base, Arrival: base.Add(3*time.Hour + 5*time.Minute), Price: 59, DurationMin: 185, Transfers: 0, Notes: "High speed"},
		{Mode: planner.ModeTrain, Provider: "Italo", Departure: base.Add(1 * time.Hour), Arrival: base.Add(5 * time.Hour), Price: 49, DurationMin: 240, Transfers: 0, Notes: "Direct"},
	}, nil
}

func heuristicDrive(_ context.Context, origin, dest string, day time.Time, _ int) ([]planner.TransportOption, error) {
	base := time.Date(day.Year(), day.Month(), day.Day(), 6, 45, 0, 0, day.Location())
	return []planner.TransportOption{
		{Mode: planner.ModeDrive, Provider: "Car (estimate)", Departure: base, Arrival: base.Add(4*time.Hour + 20*time.Minute), Price: 45, DurationMin: 260, Transfers: 0, Notes: "Estimated fuel and tolls"},
	}, nil
}

func heuristicLodging(_ context.Context, city string, _, _ time.Time, _ int, maxPerNight float64) ([]planner.LodgingOption, error) {
	catalog := []planner.LodgingOption{
		{Name: "Hotel Centro Storico", Location: city, PricePerNight: 110, Rating: 4.5, Reviews: 1800, URL: "https://example.com/hotel1"},
		{Name: "B&B Panoramico", Location: city, PricePerNight: 85, Rating: 4.7, Reviews: 650, URL: "https://example.com/bnb1"},
		{Name: "Aparthotel Easy", Location: city, PricePerNight: 95, Rating: 4.2, Reviews: 420, URL: "https://example.com/apt1"},
		{Name: "Ostello Smart", Location: city, PricePerNight: 45, Rating: 4.0, Reviews: 1200, URL: "https://example.com/hostel1"},
	}
	return filterByNightlyBudget(catalog, maxPerNight), nil
}

// LodgingSearchLinks builds booking deep links used when no source priced a
// stay and the proposal carries only a nightly estimate.
func LodgingSearchLinks(city string, checkIn, checkOut time.Time) []string {
	q := url.Values{}
	q.Set("ss", city)
	q.Set("checkin", checkIn.Format("2006-01-02"))
	q.Set("checkout", checkOut.Format("2006-01-02"))
	booking := "https://www.booking.com/searchresults.html?" + q.Encode()

	google := "https://www.google.com/travel/hotels/" + url.PathEscape(city)

	return []string{booking, google}
}
