package repository

import (
	"context"
	"fmt"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

const readingColumns = `id, user_id, appliance_id, ts, consumption, voltage, current, frequency`

// bucketExpr mirrors domain.Period.Label in SQL. ts is COLLATE "C", so the
// substr labels sort bytewise.
var bucketExpr = map[domain.Period]string{
	domain.PeriodHour:  `substr(ts, 1, 13)`,
	domain.PeriodDay:   `substr(ts, 1, 10)`,
	domain.PeriodMonth: `substr(ts, 1, 7)`,
	domain.PeriodWeek: `lpad(((EXTRACT(DOY FROM ts::timestamp)::int + 7 - EXTRACT(ISODOW FROM ts::timestamp)::int) / 7)::text, 2, '0')`,
}

// InsertReadings writes the batch in one transaction. IDs are filled in place.
func (r *Repos) InsertReadings(ctx context.Context, ownerID int64, readings []domain.Reading) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range readings {
		rd := &readings[i]
		rd.OwnerID = ownerID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO readings(user_id, appliance_id, ts, consumption, voltage, current, frequency) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
			rd.OwnerID, rd.ApplianceID, rd.Timestamp, rd.Consumption, rd.Voltage, rd.Current, rd.Frequency,
		).Scan(&rd.ID)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit()
}

// ReadingsBetween is inclusive on both bounds.
func (r *Repos) ReadingsBetween(ctx context.Context, ownerID int64, start, end string, applianceID *int64) ([]domain.Reading, error) {
	q := `SELECT ` + readingColumns + ` FROM readings WHERE user_id=$1 AND ts BETWEEN $2 AND $3`
	args := []any{ownerID, start, end}
	if applianceID != nil {
		q += ` AND appliance_id=$4`
		args = append(args, *applianceID)
	}
	q += ` ORDER BY ts ASC, id ASC`

	out := []domain.Reading{}
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, mapErr(err)
}

// LatestReadings returns the newest readings first.
func (r *Repos) LatestReadings(ctx context.Context, ownerID int64, limit int) ([]domain.Reading, error) {
	out := []domain.Reading{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+readingColumns+` FROM readings WHERE user_id=$1 ORDER BY ts DESC, id DESC LIMIT $2`, ownerID, limit)
	return out, mapErr(err)
}

func (r *Repos) Summarize(ctx context.Context, ownerID int64, period domain.Period) ([]domain.SummaryBucket, error) {
	expr, ok := bucketExpr[period]
	if !ok {
		return nil, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidArgument, string(period))
	}
	out := []domain.SummaryBucket{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+expr+` AS period, SUM(consumption) AS total FROM readings WHERE user_id=$1 GROUP BY 1 ORDER BY 1`, ownerID)
	return out, mapErr(err)
}
