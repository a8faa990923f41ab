package service

import (
	"context"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

// Storage contracts. Implementations report missing or foreign rows as
// domain.ErrNotFound and duplicate emails as domain.ErrConflict.

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByTokenDigest(ctx context.Context, digest string) (*domain.User, error)
	SetTokenDigest(ctx context.Context, userID int64, digest *string) error
	UpdateProfile(ctx context.Context, userID int64, name, passwordHash *string) error
}

type ApplianceStore interface {
	ListAppliances(ctx context.Context, ownerID int64) ([]domain.Appliance, error)
	CreateAppliance(ctx context.Context, a *domain.Appliance) error
	GetAppliance(ctx context.Context, ownerID, id int64) (*domain.Appliance, error)
	UpdateAppliance(ctx context.Context, ownerID, id int64, upd domain.ApplianceUpdate) error
	DeleteAppliance(ctx context.Context, ownerID, id int64) error
	OwnedApplianceIDs(ctx context.Context, ownerID int64, ids []int64) ([]int64, error)
}

type ReadingStore interface {
	InsertReadings(ctx context.Context, ownerID int64, readings []domain.Reading) error
	ReadingsBetween(ctx context.Context, ownerID int64, start, end string, applianceID *int64) ([]domain.Reading, error)
	LatestReadings(ctx context.Context, ownerID int64, limit int) ([]domain.Reading, error)
	Summarize(ctx context.Context, ownerID int64, period domain.Period) ([]domain.SummaryBucket, error)
}

type Store interface {
	UserStore
	ApplianceStore
	ReadingStore
}
