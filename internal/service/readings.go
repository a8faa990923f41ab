package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/metrics"
)

const (
	realtimeLimit      = 10
	defaultQueryWindow = 24 * time.Hour
)

// IngestObserver is told about every committed batch. Observers run after the
// transaction, so their failures are logged and never undo the ingest.
type IngestObserver interface {
	ReadingsIngested(ctx context.Context, owner *domain.User, readings []domain.Reading) error
}

type ReadingService struct {
	store      ReadingStore
	appliances ApplianceStore
	sessions   *SessionService
	observers  []IngestObserver
	now        func() time.Time
}

// Ingest validates and stores a batch all-or-nothing and returns its size.
func (s *ReadingService) Ingest(ctx context.Context, owner *domain.User, raws []domain.RawReading) (int, error) {
	if len(raws) == 0 {
		return 0, fmt.Errorf("%w: provide a list of readings", domain.ErrInvalidArgument)
	}

	now := domain.FormatTimestamp(s.now())
	readings := make([]domain.Reading, len(raws))
	var applianceIDs []int64
	seen := make(map[int64]bool)

	for i, raw := range raws {
		if raw.Consumption == nil {
			return 0, fmt.Errorf("%w: reading %d: consumption is required", domain.ErrInvalidArgument, i)
		}
		ts := now
		if raw.Timestamp != nil && *raw.Timestamp != "" {
			normalized, err := domain.NormalizeTimestamp(*raw.Timestamp)
			if err != nil {
				return 0, fmt.Errorf("reading %d: %w", i, err)
			}
			ts = normalized
		}
		if raw.ApplianceID != nil && !seen[*raw.ApplianceID] {
			seen[*raw.ApplianceID] = true
			applianceIDs = append(applianceIDs, *raw.ApplianceID)
		}
		rd := domain.Reading{
			ApplianceID: raw.ApplianceID,
			Timestamp:   ts,
			Consumption: raw.Consumption.Or(0),
			Voltage:     raw.Voltage.Or(domain.DefaultVoltage),
			Current:     raw.Current.Or(domain.DefaultCurrent),
			Frequency:   raw.Frequency.Or(domain.DefaultFrequency),
		}
		if !finite(rd.Consumption, rd.Voltage, rd.Current, rd.Frequency) {
			return 0, fmt.Errorf("%w: reading %d: values must be finite", domain.ErrInvalidArgument, i)
		}
		readings[i] = rd
	}

	if len(applianceIDs) > 0 {
		owned, err := s.appliances.OwnedApplianceIDs(ctx, owner.ID, applianceIDs)
		if err != nil {
			return 0, fmt.Errorf("check appliances: %w", err)
		}
		if len(owned) != len(applianceIDs) {
			return 0, fmt.Errorf("%w: reading references an unknown appliance", domain.ErrInvalidArgument)
		}
	}

	if err := s.store.InsertReadings(ctx, owner.ID, readings); err != nil {
		return 0, fmt.Errorf("insert readings: %w", err)
	}

	for _, o := range s.observers {
		if err := o.ReadingsIngested(ctx, owner, readings); err != nil {
			log.Warn().Err(err).Int64("user_id", owner.ID).Msg("ingest observer failed")
		}
	}
	return len(readings), nil
}

// Query returns readings in [start, end]. Missing or unparseable bounds fall
// back to end=now and start=end-24h.
func (s *ReadingService) Query(ctx context.Context, owner *domain.User, start, end string, applianceID *int64) ([]domain.Reading, error) {
	endT, err := domain.ParseTimestamp(end)
	if err != nil {
		endT = s.now()
	}
	startT, err := domain.ParseTimestamp(start)
	if err != nil {
		startT = endT.Add(-defaultQueryWindow)
	}
	return s.store.ReadingsBetween(ctx, owner.ID,
		domain.FormatTimestamp(startT), domain.FormatTimestamp(endT), applianceID)
}

// Summary totals consumption per bucket label. period must already be valid.
func (s *ReadingService) Summary(ctx context.Context, owner *domain.User, period domain.Period) ([]domain.SummaryBucket, error) {
	return s.store.Summarize(ctx, owner.ID, period)
}

// Realtime returns the newest readings, oldest first.
func (s *ReadingService) Realtime(ctx context.Context, owner *domain.User) ([]domain.Reading, error) {
	latest, err := s.store.LatestReadings(ctx, owner.ID, realtimeLimit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(latest)-1; i < j; i, j = i+1, j-1 {
		latest[i], latest[j] = latest[j], latest[i]
	}
	return latest, nil
}

// MQTTPayload is what devices publish: the owner's bearer token plus a batch.
type MQTTPayload struct {
	Token    string              `json:"token"`
	Readings []domain.RawReading `json:"readings"`
}

// FromMQTT resolves the publishing user through the session token and ingests
// the batch on their behalf.
func (s *ReadingService) FromMQTT(ctx context.Context, topic string, payload []byte) (int, error) {
	var p MQTTPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArgument, topic, err)
	}
	owner, err := s.sessions.Resolve(ctx, p.Token)
	if err != nil {
		return 0, err
	}
	n, err := s.Ingest(ctx, owner, p.Readings)
	if err != nil {
		return 0, err
	}
	metrics.ObserveIngest("mqtt", n)
	return n, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
