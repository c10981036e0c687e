package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/mo"
)

// UUIDToPgtype converts uuid.UUID to pgtype.UUID
func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgtypeToUUID converts pgtype.UUID to uuid.UUID
func PgtypeToUUID(id pgtype.UUID) uuid.UUID {
	return id.Bytes
}

// OptionToPgtext converts mo.Option[string] to pgtype.Text
func OptionToPgtext(o mo.Option[string]) pgtype.Text {
	if s, ok := o.Get(); ok {
		return pgtype.Text{String: s, Valid: true}
	}
	return pgtype.Text{}
}

// PgtextToOption converts pgtype.Text to mo.Option[string]
func PgtextToOption(t pgtype.Text) mo.Option[string] {
	if !t.Valid {
		return mo.None[string]()
	}
	return mo.Some(t.String)
}

// OptionToPgfloat8 converts mo.Option[float64] to pgtype.Float8
func OptionToPgfloat8(o mo.Option[float64]) pgtype.Float8 {
	if f, ok := o.Get(); ok {
		return pgtype.Float8{Float64: f, Valid: true}
	}
	return pgtype.Float8{}
}

// Pgfloat8ToOption converts pgtype.Float8 to mo.Option[float64]
func Pgfloat8ToOption(f pgtype.Float8) mo.Option[float64] {
	if !f.Valid {
		return mo.None[float64]()
	}
	return mo.Some(f.Float64)
}

// TimeToPgtype converts time.Time to pgtype.Timestamp
func TimeToPgtype(t time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{Time: t, Valid: true}
}

// PgtypeToTime converts pgtype.Timestamp to time.Time
func PgtypeToTime(t pgtype.Timestamp) time.Time {
	return t.Time
}
