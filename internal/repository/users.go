package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const userColumns = `id, name, email, password_hash, token_digest, created_at`

func (r *Repos) CreateUser(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users(name, email, password_hash) VALUES ($1,$2,$3) RETURNING id, created_at`,
		u.Name, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	return mapErr(err)
}

func (r *Repos) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *Repos) UserByTokenDigest(ctx context.Context, digest string) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE token_digest=$1`, digest); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// SetTokenDigest replaces the live session of a user; nil clears it.
func (r *Repos) SetTokenDigest(ctx context.Context, userID int64, digest *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET token_digest=$1 WHERE id=$2`, digest, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

func (r *Repos) UpdateProfile(ctx context.Context, userID int64, name, passwordHash *string) error {
	var (
		sets []string
		args []any
	)
	if name != nil {
		args = append(args, *name)
		sets = append(sets, "name=$"+strconv.Itoa(len(args)))
	}
	if passwordHash != nil {
		args = append(args, *passwordHash)
		sets = append(sets, "password_hash=$"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, userID)
	q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id=$` + strconv.Itoa(len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}
