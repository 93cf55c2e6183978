package domain

import "github.com/shopspring/decimal"

// AddMoney adds two currency amounts without binary float drift.
func AddMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// SumMoney returns the sum of amounts rounded to cents.
func SumMoney(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// AverageRating returns the mean of ratings rounded to one decimal place.
// An empty input yields 0.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(r)))
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1).Float64()
	return f
}
