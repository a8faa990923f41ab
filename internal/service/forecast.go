package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const (
	DefaultHorizonHours = 24
	MaxHorizonHours     = 168
)

// Forecaster projects a user's hourly consumption.
type Forecaster interface {
	Forecast(ctx context.Context, owner *domain.User, horizonHours int) ([]domain.ForecastPoint, error)
}

// CheckHorizon enforces the service's forecast limit of 1..MaxHorizonHours.
func CheckHorizon(hours int) error {
	if hours < 1 || hours > MaxHorizonHours {
		return fmt.Errorf("%w: horizon_hours must be between 1 and %d (service limit of %d hours per forecast)",
			domain.ErrInvalidArgument, MaxHorizonHours, MaxHorizonHours)
	}
	return nil
}

// NaiveForecaster is a placeholder, not a model: the mean of the latest 24
// readings plus a fixed diurnal sine, floored at 0.01.
type NaiveForecaster struct {
	readings ReadingStore
	now      func() time.Time
}

const (
	baselineWindow    = 24
	defaultBaseline   = 0.08
	diurnalAmplitude  = 0.02
	minimumPrediction = 0.01
)

func NewNaiveForecaster(readings ReadingStore, now func() time.Time) *NaiveForecaster {
	if now == nil {
		now = time.Now
	}
	return &NaiveForecaster{readings: readings, now: now}
}

func (f *NaiveForecaster) Forecast(ctx context.Context, owner *domain.User, horizonHours int) ([]domain.ForecastPoint, error) {
	if err := CheckHorizon(horizonHours); err != nil {
		return nil, err
	}
	recent, err := f.readings.LatestReadings(ctx, owner.ID, baselineWindow)
	if err != nil {
		return nil, fmt.Errorf("recent readings: %w", err)
	}

	baseline := defaultBaseline
	if len(recent) > 0 {
		points := make([]aggregator.Point, len(recent))
		for i, rd := range recent {
			ts, _ := domain.ParseTimestamp(rd.Timestamp)
			points[i] = aggregator.Point{Value: rd.Consumption, Timestamp: ts}
		}
		baseline = aggregator.Average(points)
	}

	now := f.now().UTC()
	out := make([]domain.ForecastPoint, horizonHours)
	for i := range out {
		t := now.Add(time.Duration(i+1) * time.Hour)
		daily := diurnalAmplitude * (1 + math.Sin(float64(t.Hour())/24*2*math.Pi))
		pred := math.Max(minimumPrediction, baseline+daily)
		out[i] = domain.ForecastPoint{
			Timestamp:   domain.FormatTimestamp(t),
			Consumption: math.Round(pred*10000) / 10000,
		}
	}
	return out, nil
}
