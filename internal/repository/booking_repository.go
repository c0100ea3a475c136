package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/maxkh/rental-marketplace/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Bookings are
// only ever written through the booking service; repositories expose
// transactional variants so the availability check and the insert
// commit together.  Date columns are DATE values interpreted as UTC
// midnights (the DSN sets loc=UTC and parseTime=true).
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, listing_id, renter_id, start_date, end_date,
			   total_cents, status, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.ListingID, &b.RenterID, &b.StartDate, &b.EndDate,
		&b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or roll back the transaction.  Status should
// be a valid enumeration value (PENDING, CONFIRMED, CANCELLED,
// COMPLETED).
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (listing_id, renter_id, start_date, end_date, total_cents, status)
			   VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.ListingID, b.RenterID,
		b.StartDate.Format(time.DateOnly), b.EndDate.Format(time.DateOnly),
		b.TotalCents, b.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns a single booking by its ID.  It returns
// ErrBookingNotFound when no such booking exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// listActive runs the shared query returning every non-cancelled
// booking for a listing, using whichever querier (db or tx) the
// caller is operating under.
func listActive(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}, listingID uint64) ([]model.Booking, error) {
	const query = `SELECT ` + bookingColumns + `
			   FROM bookings
			   WHERE listing_id = ? AND status <> 'CANCELLED'
			   ORDER BY start_date`
	rows, err := q.QueryContext(ctx, query, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.ListingID, &b.RenterID, &b.StartDate, &b.EndDate,
			&b.TotalCents, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByListing returns all non-cancelled bookings for a
// listing, ordered by start date.  This is the read used by the
// availability preview; booking creation uses the transactional
// variant instead.
func (r *BookingRepo) ListActiveByListing(ctx context.Context, listingID uint64) ([]model.Booking, error) {
	return listActive(ctx, r.db, listingID)
}

// ListActiveByListingTx is ListActiveByListing inside an existing
// transaction.  Combined with the row lock on the listing it makes
// the availability check and the subsequent insert one critical
// section.
func (r *BookingRepo) ListActiveByListingTx(ctx context.Context, tx *sql.Tx, listingID uint64) ([]model.Booking, error) {
	return listActive(ctx, tx, listingID)
}

// CancelTx marks a booking CANCELLED within the given transaction.
// The transition is one-way; callers must verify the current status
// before invoking it.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	const q = `UPDATE bookings SET status = 'CANCELLED' WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, bookingID)
	return err
}

// HistoryRow is one entry of a renter's booking history.  Listing
// title and city are joined in for display, and HasReview reports
// whether a review already exists for the booking.
type HistoryRow struct {
	Booking      model.Booking
	ListingTitle string
	City         string
	HasReview    bool
}

// ListByRenter returns all bookings made by the given renter together
// with listing display fields and review existence.  Ordering is left
// to the service layer, which splits upcoming and past stays.
func (r *BookingRepo) ListByRenter(ctx context.Context, renterID uint64) ([]HistoryRow, error) {
	const q = `SELECT b.id, b.listing_id, b.renter_id, b.start_date, b.end_date,
					  b.total_cents, b.status, b.created_at, b.updated_at,
					  l.title, l.city,
					  rv.id IS NOT NULL
			   FROM bookings b
			   JOIN listings l ON l.id = b.listing_id
			   LEFT JOIN reviews rv ON rv.booking_id = b.id
			   WHERE b.renter_id = ?`
	rows, err := r.db.QueryContext(ctx, q, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]HistoryRow, 0)
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.Booking.ID, &h.Booking.ListingID, &h.Booking.RenterID,
			&h.Booking.StartDate, &h.Booking.EndDate,
			&h.Booking.TotalCents, &h.Booking.Status,
			&h.Booking.CreatedAt, &h.Booking.UpdatedAt,
			&h.ListingTitle, &h.City, &h.HasReview,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListReviewableByRenter returns the renter's confirmed bookings that
// ended strictly before the given date and have no review yet.  This
// is the candidate set surfaced for "leave a review" prompts.
func (r *BookingRepo) ListReviewableByRenter(ctx context.Context, renterID uint64, today time.Time) ([]HistoryRow, error) {
	const q = `SELECT b.id, b.listing_id, b.renter_id, b.start_date, b.end_date,
					  b.total_cents, b.status, b.created_at, b.updated_at,
					  l.title, l.city
			   FROM bookings b
			   JOIN listings l ON l.id = b.listing_id
			   LEFT JOIN reviews rv ON rv.booking_id = b.id
			   WHERE b.renter_id = ?
				 AND b.status = 'CONFIRMED'
				 AND b.end_date < ?
				 AND rv.id IS NULL
			   ORDER BY b.end_date DESC`
	rows, err := r.db.QueryContext(ctx, q, renterID, today.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]HistoryRow, 0)
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(
			&h.Booking.ID, &h.Booking.ListingID, &h.Booking.RenterID,
			&h.Booking.StartDate, &h.Booking.EndDate,
			&h.Booking.TotalCents, &h.Booking.Status,
			&h.Booking.CreatedAt, &h.Booking.UpdatedAt,
			&h.ListingTitle, &h.City,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
