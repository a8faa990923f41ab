package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"
	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/converter"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const (
	movingAverageWindow = 12
	peakStartHour       = 8
	peakEndHour         = 20 // inclusive
)

type HourlyUsage struct {
	Hour        string  `json:"hour"`
	Consumption float64 `json:"consumption"`
	Readings    int     `json:"readings"`
}

// DailyAnalytics summarises one UTC day of a user's readings.
type DailyAnalytics struct {
	Date                string             `json:"date"`
	ReadingCount        int                `json:"reading_count"`
	TotalConsumption    float64            `json:"total_consumption"`
	TotalConsumptionMWh float64            `json:"total_consumption_mwh"`
	AverageConsumption  float64            `json:"average_consumption"`
	PeakConsumption     float64            `json:"peak_consumption"`
	MinConsumption      float64            `json:"min_consumption"`
	MovingAverage       []float64          `json:"moving_average"`
	EstimatedCost       float64            `json:"estimated_cost"`
	CostBreakdown       map[string]float64 `json:"cost_breakdown"`
	AvgVoltage          float64            `json:"avg_voltage"`
	AvgCurrent          float64            `json:"avg_current"`
	PeakHour            string             `json:"peak_hour"`
	Hourly              []HourlyUsage      `json:"hourly"`
}

type AnalyticsService struct {
	readings ReadingStore
	rate     float64
	now      func() time.Time
}

// Daily computes analytics for date (YYYY-MM-DD); an empty date means today.
func (s *AnalyticsService) Daily(ctx context.Context, owner *domain.User, date string) (*DailyAnalytics, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidArgument)
		}
		day = parsed
	}
	start := domain.FormatTimestamp(day)
	end := domain.FormatTimestamp(day.Add(24*time.Hour - time.Second))

	rows, err := s.readings.ReadingsBetween(ctx, owner.ID, start, end, nil)
	if err != nil {
		return nil, fmt.Errorf("day readings: %w", err)
	}

	out := &DailyAnalytics{
		Date:          day.Format(time.DateOnly),
		ReadingCount:  len(rows),
		MovingAverage: []float64{},
		CostBreakdown: map[string]float64{"peak": 0, "offpeak": 0},
		Hourly:        []HourlyUsage{},
	}
	if len(rows) == 0 {
		return out, nil
	}

	points := make([]aggregator.Point, len(rows))
	var voltage, current, peakKWh, offPeakKWh float64
	hourly := make(map[string]*HourlyUsage)
	var hours []string
	out.PeakConsumption, out.MinConsumption = rows[0].Consumption, rows[0].Consumption

	for i, rd := range rows {
		ts, _ := domain.ParseTimestamp(rd.Timestamp)
		points[i] = aggregator.Point{Value: rd.Consumption, Timestamp: ts}
		voltage += rd.Voltage
		current += rd.Current
		out.PeakConsumption = math.Max(out.PeakConsumption, rd.Consumption)
		out.MinConsumption = math.Min(out.MinConsumption, rd.Consumption)

		if h := ts.Hour(); h >= peakStartHour && h <= peakEndHour {
			peakKWh += rd.Consumption
		} else {
			offPeakKWh += rd.Consumption
		}

		label, _ := domain.PeriodHour.Label(rd.Timestamp)
		hu, ok := hourly[label]
		if !ok {
			hu = &HourlyUsage{Hour: label}
			hourly[label] = hu
			hours = append(hours, label)
		}
		hu.Consumption += rd.Consumption
		hu.Readings++
	}

	conv := &converter.EnergyConverter{}
	out.TotalConsumption = aggregator.Sum(points)
	out.TotalConsumptionMWh = conv.KWhToMWh(out.TotalConsumption)
	out.AverageConsumption = aggregator.Average(points)
	if ma := aggregator.MovingAverage(points, movingAverageWindow); ma != nil {
		out.MovingAverage = ma
	}
	out.CostBreakdown["peak"] = conv.CalculateCost(peakKWh, s.rate, "peak")
	out.CostBreakdown["offpeak"] = conv.CalculateCost(offPeakKWh, s.rate, "offpeak")
	out.EstimatedCost = out.CostBreakdown["peak"] + out.CostBreakdown["offpeak"]
	out.AvgVoltage = voltage / float64(len(rows))
	out.AvgCurrent = current / float64(len(rows))

	// rows are in timestamp order, so hours is already sorted
	var busiest float64
	for _, h := range hours {
		hu := hourly[h]
		out.Hourly = append(out.Hourly, *hu)
		if hu.Consumption > busiest || out.PeakHour == "" {
			busiest, out.PeakHour = hu.Consumption, h
		}
	}
	return out, nil
}
