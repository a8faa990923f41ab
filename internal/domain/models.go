package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	TokenDigest  *string   `db:"token_digest" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Appliance struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"user_id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Type        *string   `db:"type" json:"type"`
	IsOn        bool      `db:"is_on" json:"is_on"`
	PowerRating float64   `db:"power_rating" json:"power_rating"`
	Room        *string   `db:"room" json:"room"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Optional distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a supplied Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ApplianceUpdate carries only the fields a caller supplied. A supplied null
// clears type or room; name, power_rating and is_on cannot be null.
type ApplianceUpdate struct {
	Name        Optional[string]  `json:"name"`
	Type        Optional[string]  `json:"type"`
	PowerRating Optional[float64] `json:"power_rating"`
	Room        Optional[string]  `json:"room"`
	IsOn        Optional[bool]    `json:"is_on"`
}

func (u ApplianceUpdate) Empty() bool {
	return !u.Name.Set && !u.Type.Set && !u.PowerRating.Set && !u.Room.Set && !u.IsOn.Set
}

type Reading struct {
	ID          int64   `db:"id" json:"id"`
	OwnerID     int64   `db:"user_id" json:"-"`
	ApplianceID *int64  `db:"appliance_id" json:"appliance_id"`
	Timestamp   string  `db:"ts" json:"timestamp"`
	Consumption float64 `db:"consumption" json:"consumption"`
	Voltage     float64 `db:"voltage" json:"voltage"`
	Current     float64 `db:"current" json:"current"`
	Frequency   float64 `db:"frequency" json:"frequency"`
}

// RawReading is an ingest item as supplied by a client or device.
type RawReading struct {
	ApplianceID *int64  `json:"appliance_id"`
	Timestamp   *string `json:"timestamp"`
	Consumption *Number `json:"consumption"`
	Voltage     *Number `json:"voltage"`
	Current     *Number `json:"current"`
	Frequency   *Number `json:"frequency"`
}

const (
	DefaultVoltage   = 230.0
	DefaultCurrent   = 0.0
	DefaultFrequency = 50.0
)

type SummaryBucket struct {
	Period string  `db:"period" json:"period"`
	Total  float64 `db:"total" json:"total"`
}

type ForecastPoint struct {
	Timestamp   string  `json:"timestamp"`
	Consumption float64 `json:"consumption"`
}
