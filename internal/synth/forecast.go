package synth

import (
	"math"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
)

// Confidence band multipliers, ±20% around the prediction
const (
	forecastLower = 0.8
	forecastUpper = 1.2
)

// Forecast produces a daily call forecast starting at start.
//
// The model is a linear trend times a weekly sine seasonality with a fixed
// ±20% band. It is illustrative only and must not back capacity planning.
func Forecast(start time.Time, days int) []domain.ForecastPoint {
	if days <= 0 {
		return []domain.ForecastPoint{}
	}

	points := make([]domain.ForecastPoint, 0, days)
	for i := 0; i < days; i++ {
		fi := float64(i)
		base := 500 + 10*fi
		seasonal := 1 + 0.3*math.Sin(2*math.Pi*fi/7)
		trend := 1 + 0.02*fi
		predicted := base * seasonal * trend

		points = append(points, domain.ForecastPoint{
			Date:                start.AddDate(0, 0, i),
			PredictedCalls:      int(predicted),
			ConfidenceLower:     int(predicted * forecastLower),
			ConfidenceUpper:     int(predicted * forecastUpper),
			ExpectedRevenue:     round2(predicted * 2.5),
			ResourceRequirement: int(predicted / 50),
		})
	}
	return points
}
