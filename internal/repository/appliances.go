package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const applianceColumns = `id, user_id, name, type, is_on, power_rating, room, created_at`

func (r *Repos) ListAppliances(ctx context.Context, ownerID int64) ([]domain.Appliance, error) {
	out := []domain.Appliance{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+applianceColumns+` FROM appliances WHERE user_id=$1 ORDER BY id DESC`, ownerID)
	return out, mapErr(err)
}

func (r *Repos) CreateAppliance(ctx context.Context, a *domain.Appliance) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO appliances(user_id, name, type, is_on, power_rating, room) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
		a.OwnerID, a.Name, a.Type, a.IsOn, a.PowerRating, a.Room,
	).Scan(&a.ID, &a.CreatedAt)
	return mapErr(err)
}

func (r *Repos) GetAppliance(ctx context.Context, ownerID, id int64) (*domain.Appliance, error) {
	var a domain.Appliance
	err := r.db.GetContext(ctx, &a,
		`SELECT `+applianceColumns+` FROM appliances WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

// UpdateAppliance writes the supplied columns. Null type or room is stored as
// NULL; the other fields must carry a value.
func (r *Repos) UpdateAppliance(ctx context.Context, ownerID, id int64, upd domain.ApplianceUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+"=$"+strconv.Itoa(len(args)))
	}
	if upd.Name.Set {
		set("name", *upd.Name.Value)
	}
	if upd.Type.Set {
		set("type", upd.Type.Value)
	}
	if upd.PowerRating.Set {
		set("power_rating", *upd.PowerRating.Value)
	}
	if upd.Room.Set {
		set("room", upd.Room.Value)
	}
	if upd.IsOn.Set {
		set("is_on", *upd.IsOn.Value)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, ownerID)
	q := `UPDATE appliances SET ` + strings.Join(sets, ", ") +
		` WHERE id=$` + strconv.Itoa(len(args)-1) + ` AND user_id=$` + strconv.Itoa(len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (r *Repos) DeleteAppliance(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appliances WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// OwnedApplianceIDs returns the subset of ids that belong to ownerID.
func (r *Repos) OwnedApplianceIDs(ctx context.Context, ownerID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`SELECT id FROM appliances WHERE user_id=? AND id IN (?)`, ownerID, ids)
	if err != nil {
		return nil, err
	}
	var out []int64
	err = r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, mapErr(err)
}
