package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/cache"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/cloud"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/config"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/database"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/repository"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

// Services wires storage, the session cache and the cloud observers from
// config. The returned func releases everything that was opened.
func Services(ctx context.Context) (*service.Services, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := openStore(ctx, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	opts := service.Options{
		Hasher:     service.NewPasswordHasher(config.Argon2MemoryKiB(), config.Argon2Iterations()),
		EnergyRate: config.EnergyRatePerKWh(),
	}

	if addr := config.RedisAddr(); addr != "" {
		sessions, err := cache.NewRedisSessions(ctx, addr, config.SessionCacheTTL())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = sessions.Close() })
		opts.Cache = sessions
		log.Info().Str("addr", addr).Msg("session cache enabled")
	}

	if config.UseCloudServices() {
		awsCfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if bucket := config.S3Bucket(); bucket != "" {
			opts.Observers = append(opts.Observers, cloud.NewArchiver(awsCfg, bucket))
			log.Info().Str("bucket", bucket).Msg("s3 archival enabled")
		}
		if arn := config.SNSTopicArn(); arn != "" {
			publisher := cloud.NewEventPublisher(awsCfg, arn)
			opts.Observers = append(opts.Observers, publisher)
			opts.Alerter = publisher
			log.Info().Str("topic", arn).Msg("sns events enabled")
		}
	}

	svcs, err := service.New(store, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svcs, cleanup, nil
}

func openStore(ctx context.Context, closers *[]func()) (service.Store, error) {
	if config.DBDriver() == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return repository.NewMemory(), nil
	}

	db, err := database.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	*closers = append(*closers, func() { _ = db.Close() })

	if config.DBAutoMigrate() {
		if err := database.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return repository.New(db), nil
}
