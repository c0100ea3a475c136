package repository

import (
	"context"
	"database/sql"

	"github.com/maxkh/rental-marketplace/internal/model"
)

// ListingRepo provides read access to listings and the single write
// this module performs on them: maintaining the derived
// average_rating column. All other listing mutations (create, edit,
// status changes) belong to the listing management service and are
// out of scope here.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a new ListingRepo bound to the given database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying database handle so that callers can open
// transactions spanning multiple repositories.
func (r *ListingRepo) DB() *sql.DB { return r.db }

const listingColumns = `id, owner_id, title, description, city, district,
			   property_type, price_cents, floor, average_rating, status,
			   created_at, updated_at`

// scanListing reads one listing row from the given scanner.  Floor and
// average_rating are nullable and mapped to pointer fields.
func scanListing(row *sql.Row) (*model.Listing, error) {
	var l model.Listing
	var floor sql.NullInt64
	var avg sql.NullFloat64
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.City, &l.District,
		&l.PropertyType, &l.PriceCents, &floor, &avg, &l.Status,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if floor.Valid {
		f := int(floor.Int64)
		l.Floor = &f
	}
	if avg.Valid {
		a := avg.Float64
		l.AverageRating = &a
	}
	return &l, nil
}

// GetByID returns a single listing by its ID.  It returns
// ErrListingNotFound when no such listing exists.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	l, err := scanListing(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	return l, err
}

// GetByIDForUpdateTx loads a listing inside a transaction and takes a
// row lock on it.  Booking creation uses this lock to serialize the
// availability check and the subsequent insert per listing, so two
// concurrent requests for the same listing cannot both pass the
// check.  Returns ErrListingNotFound when the listing does not exist.
func (r *ListingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = ? FOR UPDATE`
	l, err := scanListing(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	return l, err
}

// UpdateAverageRatingTx writes the derived average rating within the
// given transaction.  Passing nil clears the column back to NULL,
// which is the state of a listing with no reviews.  This is the only
// code path that touches average_rating; it always runs in the same
// transaction as the review mutation that made the value stale.
func (r *ListingRepo) UpdateAverageRatingTx(ctx context.Context, tx *sql.Tx, listingID uint64, avg *float64) error {
	const q = `UPDATE listings SET average_rating = ? WHERE id = ?`
	var v interface{}
	if avg != nil {
		v = *avg
	}
	_, err := tx.ExecContext(ctx, q, v, listingID)
	return err
}

// CityStat aggregates per-city counts used by the popular cities
// ranking: the number of active listings and the number of
// non-cancelled bookings in that city.
type CityStat struct {
	City     string `json:"city"`
	Listings int64  `json:"listings"`
	Bookings int64  `json:"bookings"`
}

// CityStatistics returns listing and booking counts grouped by city.
// Cancelled bookings do not contribute to popularity.  The result is
// unordered; ranking happens in the service layer.
func (r *ListingRepo) CityStatistics(ctx context.Context) ([]CityStat, error) {
	const q = `SELECT l.city,
					  COUNT(DISTINCT l.id),
					  COUNT(b.id)
			   FROM listings l
			   LEFT JOIN bookings b ON b.listing_id = l.id AND b.status <> 'CANCELLED'
			   WHERE l.status = 'ACTIVE'
			   GROUP BY l.city`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]CityStat, 0)
	for rows.Next() {
		var s CityStat
		if err := rows.Scan(&s.City, &s.Listings, &s.Bookings); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
