package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

type NewAppliance struct {
	Name        string   `json:"name"`
	Type        *string  `json:"type"`
	PowerRating *float64 `json:"power_rating"`
	Room        *string  `json:"room"`
}

// ApplianceService scopes every call to the caller. Rows owned by someone
// else are reported as domain.ErrNotFound.
type ApplianceService struct {
	store ApplianceStore
}

func (s *ApplianceService) List(ctx context.Context, owner *domain.User) ([]domain.Appliance, error) {
	return s.store.ListAppliances(ctx, owner.ID)
}

func (s *ApplianceService) Create(ctx context.Context, owner *domain.User, in NewAppliance) (*domain.Appliance, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	a := &domain.Appliance{
		OwnerID: owner.ID,
		Name:    name,
		Type:    in.Type,
		Room:    in.Room,
	}
	if in.PowerRating != nil {
		a.PowerRating = *in.PowerRating
	}
	if a.PowerRating < 0 {
		return nil, fmt.Errorf("%w: power_rating must be non-negative", domain.ErrInvalidArgument)
	}
	if err := s.store.CreateAppliance(ctx, a); err != nil {
		return nil, fmt.Errorf("create appliance: %w", err)
	}
	return a, nil
}

func (s *ApplianceService) Get(ctx context.Context, owner *domain.User, id int64) (*domain.Appliance, error) {
	return s.store.GetAppliance(ctx, owner.ID, id)
}

// Update changes only the supplied fields. An empty update succeeds without
// touching storage. A null type or room clears it; null anywhere else is
// rejected.
func (s *ApplianceService) Update(ctx context.Context, owner *domain.User, id int64, upd domain.ApplianceUpdate) error {
	if upd.Empty() {
		return nil
	}
	for field, null := range map[string]bool{
		"name":         upd.Name.Set && upd.Name.Value == nil,
		"power_rating": upd.PowerRating.Set && upd.PowerRating.Value == nil,
		"is_on":        upd.IsOn.Set && upd.IsOn.Value == nil,
	} {
		if null {
			return fmt.Errorf("%w: %s must not be null", domain.ErrInvalidArgument, field)
		}
	}
	if upd.Name.Set {
		name := strings.TrimSpace(*upd.Name.Value)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidArgument)
		}
		upd.Name = domain.Some(name)
	}
	if upd.PowerRating.Set && *upd.PowerRating.Value < 0 {
		return fmt.Errorf("%w: power_rating must be non-negative", domain.ErrInvalidArgument)
	}
	return s.store.UpdateAppliance(ctx, owner.ID, id, upd)
}

func (s *ApplianceService) Delete(ctx context.Context, owner *domain.User, id int64) error {
	return s.store.DeleteAppliance(ctx, owner.ID, id)
}

// Toggle flips is_on. Concurrent toggles resolve last-write-wins.
func (s *ApplianceService) Toggle(ctx context.Context, owner *domain.User, id int64) (*domain.Appliance, error) {
	a, err := s.store.GetAppliance(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	return s.SetState(ctx, owner, id, !a.IsOn)
}

func (s *ApplianceService) SetState(ctx context.Context, owner *domain.User, id int64, on bool) (*domain.Appliance, error) {
	if err := s.store.UpdateAppliance(ctx, owner.ID, id, domain.ApplianceUpdate{IsOn: domain.Some(on)}); err != nil {
		return nil, err
	}
	return s.store.GetAppliance(ctx, owner.ID, id)
}
