package repository

import (
	"context"
	"database/sql"

	"github.com/maxkh/rental-marketplace/internal/model"
)

// ReviewRepo provides CRUD operations for reviews.  A review is tied
// one-to-one to a booking via a unique index on booking_id.  Review
// writes always run inside a transaction shared with the average
// rating recomputation so the derived value cannot drift.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// CreateTx inserts a new review within the scope of an existing
// transaction and populates the generated ID on the provided record.
func (r *ReviewRepo) CreateTx(ctx context.Context, tx *sql.Tx, rv *model.Review) error {
	const q = `INSERT INTO reviews (booking_id, listing_id, guest_id, rating, comment)
			   VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, rv.BookingID, rv.ListingID, rv.GuestID, rv.Rating, rv.Comment)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// GetByIDTx returns a single review by ID inside a transaction.  It
// returns ErrReviewNotFound when no such review exists.
func (r *ReviewRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Review, error) {
	const q = `SELECT id, booking_id, listing_id, guest_id, rating, comment, created_at
			   FROM reviews WHERE id = ?`
	var rv model.Review
	var comment sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rv.ID, &rv.BookingID, &rv.ListingID, &rv.GuestID, &rv.Rating, &comment, &rv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	rv.Comment = comment.String
	return &rv, nil
}

// ExistsByBookingTx reports whether a review already exists for the
// given booking.  Used by the eligibility gate before inserting.
func (r *ReviewRepo) ExistsByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = ?)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, bookingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// RatingsByListingTx returns the ratings of all current reviews for a
// listing.  The aggregator computes the mean from this set; an empty
// result means the listing has no reviews and its average must be
// cleared.
func (r *ReviewRepo) RatingsByListingTx(ctx context.Context, tx *sql.Tx, listingID uint64) ([]int, error) {
	const q = `SELECT rating FROM reviews WHERE listing_id = ?`
	rows, err := tx.QueryContext(ctx, q, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ratings := make([]int, 0)
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

// DeleteTx removes a review within the given transaction.
func (r *ReviewRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM reviews WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// ListingReview is a review row joined with the guest's display name,
// as shown on a listing's detail page.
type ListingReview struct {
	ID        uint64 `json:"id"`
	GuestName string `json:"guest_name"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListByListing returns all reviews for a listing, newest first,
// joined with the reviewing guest's first name.
func (r *ReviewRepo) ListByListing(ctx context.Context, listingID uint64) ([]ListingReview, error) {
	const q = `SELECT rv.id, u.first_name, rv.rating, rv.comment, rv.created_at
			   FROM reviews rv
			   JOIN users u ON u.id = rv.guest_id
			   WHERE rv.listing_id = ?
			   ORDER BY rv.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ListingReview, 0)
	for rows.Next() {
		var lr ListingReview
		var comment sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&lr.ID, &lr.GuestName, &lr.Rating, &comment, &createdAt); err != nil {
			return nil, err
		}
		lr.Comment = comment.String
		if createdAt.Valid {
			lr.CreatedAt = createdAt.Time.UTC().Format("2006-01-02")
		}
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
