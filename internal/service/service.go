package service

import (
	"time"
)

// DefaultEnergyRate is the tariff per kWh used when none is configured.
const DefaultEnergyRate = 0.20

type Services struct {
	Credentials *CredentialService
	Sessions    *SessionService
	Appliances  *ApplianceService
	Readings    *ReadingService
	Forecaster  Forecaster
	Maintenance *MaintenanceService
	Analytics   *AnalyticsService
}

type Options struct {
	Hasher     *PasswordHasher
	Cache      SessionCache
	Observers  []IngestObserver
	Alerter    MaintenanceAlerter
	Forecaster Forecaster
	EnergyRate float64
	Now        func() time.Time
}

func New(store Store, opts Options) (*Services, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hasher == nil {
		opts.Hasher = NewPasswordHasher(64*1024, 1)
	}
	if opts.EnergyRate <= 0 {
		opts.EnergyRate = DefaultEnergyRate
	}
	if opts.Forecaster == nil {
		opts.Forecaster = NewNaiveForecaster(store, opts.Now)
	}

	creds, err := NewCredentialService(store, opts.Hasher)
	if err != nil {
		return nil, err
	}
	sessions := NewSessionService(creds, store, opts.Cache)
	return &Services{
		Credentials: creds,
		Sessions:    sessions,
		Appliances:  &ApplianceService{store: store},
		Readings: &ReadingService{
			store:      store,
			appliances: store,
			sessions:   sessions,
			observers:  opts.Observers,
			now:        opts.Now,
		},
		Forecaster: opts.Forecaster,
		Maintenance: &MaintenanceService{
			appliances: store,
			readings:   store,
			alerter:    opts.Alerter,
			now:        opts.Now,
		},
		Analytics: &AnalyticsService{
			readings: store,
			rate:     opts.EnergyRate,
			now:      opts.Now,
		},
	}, nil
}
