package planner

import (
	"math"
	"sort"
)

// ─── Assembly ────────────────────────────────────────────────────────────────

// BuildProposal combines selected legs with a nightly price into a priced
// proposal. Leg prices are rounded to whole currency units before summing.
// A zero budget means "no budget given" and the proposal counts as under
// budget by definition.
func BuildProposal(destination string, outbound, ret TransportOption, lodging *LodgingOption, perNight float64, nights int, budget float64) Proposal {
	if nights < 1 {
		nights = 1
	}
	if lodging != nil {
		perNight = lodging.PricePerNight
	}
	total := math.Round(outbound.Price) + math.Round(ret.Price) + perNight*float64(nights)
	return Proposal{
		Destination: destination,
		Outbound:    outbound,
		Return:      ret,
		Lodging:     lodging,
		PerNight:    perNight,
		Nights:      nights,
		Total:       total,
		Budget:      budget,
		UnderBudget: budget <= 0 || total <= budget,
	}
}

// ─── Ranking ─────────────────────────────────────────────────────────────────

// RankProposals orders proposals for presentation: under-budget first, then
// trend score descending, then total price ascending. The sort is stable so
// exact ties keep the order the candidates were produced in.
func RankProposals(ps []Proposal) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.UnderBudget != b.UnderBudget {
			return a.UnderBudget
		}
		if a.TrendScore != b.TrendScore {
			return a.TrendScore > b.TrendScore
		}
		return a.Total < b.Total
	})
}
