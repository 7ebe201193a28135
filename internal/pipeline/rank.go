package pipeline

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"ibovrank/internal"
)

// Rank returns a copy of rows sorted by participation, highest first, with
// Rank set from 1. Equal weights keep their input order and NaN weights go last.
func Rank(rows []internal.ConstituentRow) []internal.ConstituentRow {
	out := make([]internal.ConstituentRow, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ParticipationPercent, out[j].ParticipationPercent
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// TotalParticipation sums the weights without float drift, e.g. "100.001".
// NaN and infinite weights are skipped.
func TotalParticipation(rows []internal.ConstituentRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		v := row.ParticipationPercent
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}
