// Package mileage contains the offline distance estimator and unit helpers
// used when no live distance provider answers.
package mileage

import (
	"hash/fnv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MinEstimateMiles is the smallest value Estimate returns
	MinEstimateMiles = 20
	// MaxEstimateMiles is the largest value Estimate returns
	MaxEstimateMiles = 60

	estimateBuckets = MaxEstimateMiles - MinEstimateMiles + 1

	tollToken      = "tolls"
	avoidTollToken = "avoid-tolls"
)

var metersPerMile = decimal.RequireFromString("1609.344")

// Estimate returns a deterministic whole-mile distance in
// [MinEstimateMiles, MaxEstimateMiles] for a trip. Identical inputs always
// give identical results, and flipping avoidTolls always changes the result.
func Estimate(origin, destination string, avoidTolls bool) decimal.Decimal {
	withTolls := bucket(origin, destination, tollToken)
	b := withTolls
	if avoidTolls {
		b = bucket(origin, destination, avoidTollToken)
		if b == withTolls {
			b = (b + 1) % estimateBuckets
		}
	}
	return decimal.NewFromInt(int64(MinEstimateMiles + b))
}

// MetersToMiles converts a metric distance to miles rounded to one decimal place
func MetersToMiles(meters int) decimal.Decimal {
	return decimal.NewFromInt(int64(meters)).Div(metersPerMile).Round(1)
}

func bucket(origin, destination, token string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(normalize(origin) + "|" + normalize(destination) + "|" + token))
	return h.Sum32() % estimateBuckets
}

// normalize lower-cases and collapses whitespace so cosmetic edits to an
// address do not change its estimate.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
