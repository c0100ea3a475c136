package repository

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// ListingSearchQuery defines the filter tuple for searching listings.
// The full tuple also forms the cache key for search results.
type ListingSearchQuery struct {
	City          string
	District      string
	PropertyType  string
	MinPriceCents int64
	MaxPriceCents int64
	Floor         *int
	StartDate     *time.Time
	EndDate       *time.Time
}

// ListingRow is a search result entry exposed by the public API.
type ListingRow struct {
	ID            uint64   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	City          string   `json:"city"`
	District      string   `json:"district"`
	PropertyType  string   `json:"property_type"`
	PriceCents    int64    `json:"price_cents"`
	Price         float64  `json:"price"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// Search returns active listings matching the filter tuple. When a
// date range is given, listings with any non-cancelled booking
// overlapping that half-open range are excluded. Overlap uses the
// same rule as the availability engine: touching endpoints do not
// conflict.
func (r *ListingRepo) Search(ctx context.Context, q ListingSearchQuery) ([]ListingRow, error) {
	where := []string{"l.status = 'ACTIVE'"}
	args := []any{}

	if q.City != "" {
		where = append(where, "LOWER(l.city) LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(q.City))+"%")
	}
	if q.District != "" {
		where = append(where, "LOWER(l.district) LIKE ?")
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(q.District))+"%")
	}
	if q.PropertyType != "" {
		where = append(where, "l.property_type = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(q.PropertyType)))
	}
	if q.MinPriceCents > 0 {
		where = append(where, "l.price_cents >= ?")
		args = append(args, q.MinPriceCents)
	}
	if q.MaxPriceCents > 0 {
		where = append(where, "l.price_cents <= ?")
		args = append(args, q.MaxPriceCents)
	}
	if q.Floor != nil {
		where = append(where, "l.floor = ?")
		args = append(args, *q.Floor)
	}
	if q.StartDate != nil && q.EndDate != nil {
		// exclude listings booked for any part of [start, end)
		where = append(where, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.listing_id = l.id
			  AND b.status <> 'CANCELLED'
			  AND b.start_date < ?
			  AND b.end_date > ?
		)`)
		args = append(args, q.EndDate.Format(time.DateOnly), q.StartDate.Format(time.DateOnly))
	}

	query := `SELECT l.id, l.title, l.description, l.city, l.district,
			l.property_type, l.price_cents, l.average_rating
		FROM listings l
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY l.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ListingRow, 0)
	for rows.Next() {
		var d ListingRow
		var avg *float64
		if err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.City,
			&d.District,
			&d.PropertyType,
			&d.PriceCents,
			&avg,
		); err != nil {
			return nil, err
		}
		d.Price = float64(d.PriceCents) / 100.0
		d.AverageRating = avg
		if len(d.Description) > 100 {
			cut := 100
			// Back off to the start of the rune so the cut never
			// splits a multi-byte character.
			for cut > 0 && !utf8.RuneStart(d.Description[cut]) {
				cut--
			}
			d.Description = d.Description[:cut] + "..."
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
