package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/maintenance"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const (
	serviceInterval = 365 * 24 * time.Hour
	alertRisk       = 0.5
)

// MaintenanceAlerter is notified when an appliance is likely to fail soon.
type MaintenanceAlerter interface {
	MaintenanceDue(ctx context.Context, owner *domain.User, p *MaintenancePrediction) error
}

type MaintenancePrediction struct {
	ApplianceID       int64     `json:"appliance_id"`
	ApplianceName     string    `json:"appliance_name"`
	HoursRun          float64   `json:"hours_run"`
	FailureRisk30Days float64   `json:"failure_risk_30_days"`
	FailureRisk90Days float64   `json:"failure_risk_90_days"`
	NextServiceDate   time.Time `json:"next_service_date"`
	DaysUntilService  int       `json:"days_until_service"`
	Recommendation    string    `json:"recommendation"`
}

// MaintenanceService estimates failure risk per appliance from its usage.
type MaintenanceService struct {
	appliances ApplianceStore
	readings   ReadingStore
	alerter    MaintenanceAlerter
	now        func() time.Time
}

func (s *MaintenanceService) Predict(ctx context.Context, owner *domain.User, applianceID int64) (*MaintenancePrediction, error) {
	a, err := s.appliances.GetAppliance(ctx, owner.ID, applianceID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	history, err := s.readings.ReadingsBetween(ctx, owner.ID,
		domain.FormatTimestamp(a.CreatedAt), domain.FormatTimestamp(now), &a.ID)
	if err != nil {
		return nil, fmt.Errorf("appliance readings: %w", err)
	}
	var hoursRun float64
	for _, rd := range history {
		if rd.Consumption > 0 {
			hoursRun++
		}
	}

	health := maintenance.AssetHealth{
		HoursRun:           hoursRun,
		FailureRatePerYear: failureRate(a.Type),
		LastService:        a.CreatedAt,
		ServiceInterval:    serviceInterval,
	}
	risk30 := maintenance.FailureRisk(health.FailureRatePerYear, 30*24*time.Hour)
	risk90 := maintenance.FailureRisk(health.FailureRatePerYear, 90*24*time.Hour)
	next := maintenance.NextServiceDate(health)

	p := &MaintenancePrediction{
		ApplianceID:       a.ID,
		ApplianceName:     a.Name,
		HoursRun:          hoursRun,
		FailureRisk30Days: math.Round(risk30*10000) / 100,
		FailureRisk90Days: math.Round(risk90*10000) / 100,
		NextServiceDate:   next,
		DaysUntilService:  int(next.Sub(now).Hours() / 24),
		Recommendation:    recommendation(risk30),
	}

	if risk30 > alertRisk && s.alerter != nil {
		if err := s.alerter.MaintenanceDue(ctx, owner, p); err != nil {
			log.Warn().Err(err).Int64("appliance_id", a.ID).Msg("maintenance alert failed")
		}
	}
	return p, nil
}

func failureRate(kind *string) float64 {
	if kind == nil {
		return 0.15
	}
	switch *kind {
	case "HVAC":
		return 0.3
	case "Utility":
		return 0.25
	default:
		return 0.15
	}
}

func recommendation(risk float64) string {
	switch {
	case risk > 0.5:
		return "URGENT: Schedule immediate maintenance inspection"
	case risk > 0.3:
		return "Schedule maintenance within next 30 days"
	case risk > 0.15:
		return "Plan maintenance within next 90 days"
	default:
		return "Appliance operating normally"
	}
}
