package repository

import (
	"context"
	"database/sql"
)

// FavoriteRepo manages the favorites join table.  A favorite is
// identified by the (renter_id, listing_id) pair and has no state
// beyond existing or not, so the repository only exposes existence,
// insertion, deletion and listing.
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo returns a new FavoriteRepo bound to the given database.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Exists reports whether the renter has favorited the listing.
func (r *FavoriteRepo) Exists(ctx context.Context, renterID, listingID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM favorites WHERE renter_id = ? AND listing_id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, renterID, listingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a favorite membership row.
func (r *FavoriteRepo) Create(ctx context.Context, renterID, listingID uint64) error {
	const q = `INSERT INTO favorites (renter_id, listing_id) VALUES (?, ?)`
	_, err := r.db.ExecContext(ctx, q, renterID, listingID)
	return err
}

// Delete removes a favorite membership row.  It returns
// ErrFavoriteNotFound when the pair was not present.
func (r *FavoriteRepo) Delete(ctx context.Context, renterID, listingID uint64) error {
	const q = `DELETE FROM favorites WHERE renter_id = ? AND listing_id = ?`
	result, err := r.db.ExecContext(ctx, q, renterID, listingID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// FavoriteListing is a favorited listing with the summary fields the
// favorites page displays.
type FavoriteListing struct {
	ListingID  uint64  `json:"listing_id"`
	Title      string  `json:"title"`
	City       string  `json:"city"`
	District   string  `json:"district"`
	PriceCents int64   `json:"price_cents"`
	Price      float64 `json:"price"`
}

// ListByRenter returns the renter's favorited listings, most recently
// saved first.
func (r *FavoriteRepo) ListByRenter(ctx context.Context, renterID uint64) ([]FavoriteListing, error) {
	const q = `SELECT l.id, l.title, l.city, l.district, l.price_cents
			   FROM favorites f
			   JOIN listings l ON l.id = f.listing_id
			   WHERE f.renter_id = ?
			   ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FavoriteListing, 0)
	for rows.Next() {
		var f FavoriteListing
		if err := rows.Scan(&f.ListingID, &f.Title, &f.City, &f.District, &f.PriceCents); err != nil {
			return nil, err
		}
		f.Price = float64(f.PriceCents) / 100.0
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
