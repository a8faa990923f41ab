package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const (
	DemoEmail    = "demo@smartenergy.ai"
	DemoPassword = "password"
	seedDays     = 7
)

type demoAppliance struct {
	name, kind, room string
	rating           float64
	on               bool
}

var demoAppliances = []demoAppliance{
	{"Air Conditioner", "HVAC", "Living Room", 1500, false},
	{"Refrigerator", "Kitchen", "Kitchen", 200, true},
	{"Water Heater", "Utility", "Basement", 3000, false},
}

// SeedDemo registers the demo account with three appliances and a week of
// hourly readings. It does nothing when the demo email already exists.
func (s *Services) SeedDemo(ctx context.Context) error {
	user, err := s.Credentials.Register(ctx, "Demo User", DemoEmail, DemoPassword)
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	ids := make([]int64, 0, len(demoAppliances))
	for _, d := range demoAppliances {
		kind, room, rating := d.kind, d.room, d.rating
		a, err := s.Appliances.Create(ctx, user, NewAppliance{Name: d.name, Type: &kind, Room: &room, PowerRating: &rating})
		if err != nil {
			return fmt.Errorf("seed appliance: %w", err)
		}
		if d.on {
			if _, err := s.Appliances.SetState(ctx, user, a.ID, true); err != nil {
				return fmt.Errorf("seed appliance state: %w", err)
			}
		}
		ids = append(ids, a.ID)
	}

	start := s.Readings.now().UTC().Add(-seedDays * 24 * time.Hour)
	raws := make([]domain.RawReading, 0, seedDays*24*len(ids))
	for h := 0; h < seedDays*24; h++ {
		t := start.Add(time.Duration(h) * time.Hour)
		ts := domain.FormatTimestamp(t)
		for i := range ids {
			consumption := demoConsumption(i == 0, t.Hour())
			current := domain.Number(math.Round(consumption*4.35*1000) / 1000)
			c := domain.Number(consumption)
			raws = append(raws, domain.RawReading{
				ApplianceID: &ids[i],
				Timestamp:   &ts,
				Consumption: &c,
				Current:     &current,
			})
		}
	}
	n, err := s.Readings.Ingest(ctx, user, raws)
	if err != nil {
		return fmt.Errorf("seed readings: %w", err)
	}
	log.Info().Int64("user_id", user.ID).Int("readings", n).Msg("demo data seeded")
	return nil
}

// demoConsumption is a synthetic pattern: the first appliance peaks during
// working hours, every third hour adds a small bump.
func demoConsumption(peaky bool, hour int) float64 {
	base := 0.05
	if peaky {
		base = 0.02
		if hour >= 10 && hour <= 18 {
			base = 0.1
		}
	}
	if hour%3 == 0 {
		base += 0.01
	}
	return math.Round(math.Max(0.01, base)*10000) / 10000
}
