package str8up

import "math"

const (
	minWasteFactor = 0.15
	maxWasteFactor = 0.30

	// share of identified waste assumed recoverable per year
	recoverableShare = 0.70
	// one-time transformation cost as a share of first-year savings
	costShare = 0.70

	defaultBaseSpend = 300000
)

var baseSpend = map[BudgetBracket]int64{
	BudgetUnder100k: 50000,
	Budget100kTo500: 150000,
	Budget500kTo1m:  300000,
	Budget1mTo5m:    500000,
	BudgetOver5m:    800000,
}

// BaseSpend returns the representative annual spend for a budget bracket.
func BaseSpend(b BudgetBracket) int64 {
	if v, ok := baseSpend[b]; ok {
		return v
	}
	return defaultBaseSpend
}

func clampComplexity(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func wasteFactor(complexity int) float64 {
	cf := float64(clampComplexity(complexity)) / 100
	return minWasteFactor + cf*(maxWasteFactor-minWasteFactor)
}

// ComputeFinancials projects spend, waste, savings and ROI.
// The reported waste factor is rounded to two decimals; the amounts are
// derived from the unrounded factor. ROI is 0 when the cost is 0.
func ComputeFinancials(b BudgetBracket, complexity int) CalculatorData {
	spend := BaseSpend(b)
	factor := wasteFactor(complexity)

	waste := math.Round(float64(spend) * factor)
	savings := math.Round(waste * recoverableShare)
	cost := math.Round(savings * costShare)

	var roi float64
	if cost > 0 {
		roi = math.Round(savings / cost * 100)
	}

	return CalculatorData{
		BaseSpend:              spend,
		WasteFactor:            math.Round(factor*100) / 100,
		WasteAmount:            int64(waste),
		ProjectedAnnualSavings: int64(savings),
		TransformationCost:     int64(cost),
		ROIPercent:             int64(roi),
	}
}

// PaybackMonths is the months of savings needed to cover the cost.
func PaybackMonths(c CalculatorData) int {
	if c.ProjectedAnnualSavings <= 0 {
		return 0
	}
	return int(math.Round(float64(c.TransformationCost) / float64(c.ProjectedAnnualSavings) * 12))
}
