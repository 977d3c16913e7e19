package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildProposalTotals(t *testing.T) {
	out := leg(79, 145, 0)
	ret := leg(129, 220, 1)
	stay := &LodgingOption{Name: "B&B Panoramico", PricePerNight: 85, Rating: 4.7, Reviews: 650}

	p := BuildProposal("Lisbon", out, ret, stay, 0, 3, 400)

	assert.Equal(t, 463.0, p.Total) // 79 + 129 + 3×85
	assert.False(t, p.UnderBudget)
}

func TestBuildProposalNoBudget(t *testing.T) {
	p := BuildProposal("Lisbon", leg(79, 145, 0), leg(129, 220, 1), nil, 85, 3, 0)
	assert.True(t, p.UnderBudget, "missing budget always counts as under budget")
}

func TestBuildProposalMinimumOneNight(t *testing.T) {
	p := BuildProposal("Lisbon", leg(79, 145, 0), leg(129, 220, 1), nil, 85, 0, 0)
	assert.Equal(t, 1, p.Nights)
	assert.Equal(t, 79.0+129+85, p.Total)
}

func TestBuildProposalRoundsLegPrices(t *testing.T) {
	out := leg(79.49, 145, 0)
	ret := leg(128.61, 220, 1)
	p := BuildProposal("Lisbon", out, ret, nil, 100, 2, 0)
	assert.Equal(t, 79.0+129+200, p.Total)
}

func TestSeasonFactors(t *testing.T) {
	cfg := DefaultConfig()

	august := cfg.SeasonFactor(time.August)
	july := cfg.SeasonFactor(time.July)
	june := cfg.SeasonFactor(time.June)
	september := cfg.SeasonFactor(time.September)
	march := cfg.SeasonFactor(time.March)

	assert.Greater(t, august, july)
	assert.Greater(t, july, june)
	assert.Equal(t, june, september)
	assert.Greater(t, june, march)

	assert.Equal(t, cfg.BaseNightly*august, cfg.NightlyEstimate(time.August))
}

func TestRankProposalsBudgetFirst(t *testing.T) {
	cheapOver := Proposal{Destination: "A", Total: 100, UnderBudget: false}
	expensiveUnder := Proposal{Destination: "B", Total: 900, UnderBudget: true}

	ps := []Proposal{cheapOver, expensiveUnder}
	RankProposals(ps)

	assert.Equal(t, "B", ps[0].Destination, "under-budget sorts first regardless of price")
}

func TestRankProposalsTrendThenPrice(t *testing.T) {
	ps := []Proposal{
		{Destination: "pricier", UnderBudget: true, TrendScore: 0.4, Total: 500},
		{Destination: "trendy", UnderBudget: true, TrendScore: 0.9, Total: 700},
		{Destination: "cheaper", UnderBudget: true, TrendScore: 0.4, Total: 300},
	}
	RankProposals(ps)

	assert.Equal(t, "trendy", ps[0].Destination)
	assert.Equal(t, "cheaper", ps[1].Destination)
	assert.Equal(t, "pricier", ps[2].Destination)
}

func TestRankProposalsStable(t *testing.T) {
	// Exact ties keep production order.
	ps := []Proposal{
		{Destination: "first", UnderBudget: true, TrendScore: 0.5, Total: 400},
		{Destination: "second", UnderBudget: true, TrendScore: 0.5, Total: 400},
		{Destination: "third", UnderBudget: true, TrendScore: 0.5, Total: 400},
	}
	RankProposals(ps)

	assert.Equal(t, "first", ps[0].Destination)
	assert.Equal(t, "second", ps[1].Destination)
	assert.Equal(t, "third", ps[2].Destination)
}
