package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/maxkh/rental-marketplace/internal/model"
	"github.com/maxkh/rental-marketplace/internal/queue"
	"github.com/maxkh/rental-marketplace/internal/repository"
)

// EventPublisher sends booking domain events to the message broker.
// Publishing happens after the write is committed and failures are
// ignored by the caller, so implementations should log their own
// errors.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
	BookingCancelled(ctx context.Context, event queue.BookingCancelledEvent) error
}

// BookingService is the only writer of booking state. It owns the
// availability check, price computation and the create/cancel
// transitions, and triggers cache invalidation and event publishing
// after each successful state change.
//
// The availability check followed by the insert is a check-then-act
// sequence. Two guards make it atomic per listing: an in-process
// mutex keyed by listing ID held across check and insert, and a
// SELECT ... FOR UPDATE on the listing row so that the guarantee also
// holds across server processes sharing the database.
type BookingService struct {
	db       *sql.DB
	listings *repository.ListingRepo
	bookings *repository.BookingRepo
	cache    Invalidator
	events   EventPublisher

	// now is swapped out in tests to pin "today".
	now func() time.Time

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex // per-listing booking locks
}

// NewBookingService constructs a BookingService. cache and events may
// be nil, which disables invalidation and event publishing.
func NewBookingService(db *sql.DB, listings *repository.ListingRepo, bookings *repository.BookingRepo, cache Invalidator, events EventPublisher) *BookingService {
	if db == nil || listings == nil || bookings == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		db:       db,
		listings: listings,
		bookings: bookings,
		cache:    cache,
		events:   events,
		now:      time.Now,
		locks:    make(map[uint64]*sync.Mutex),
	}
}

// listingLock returns the mutex guarding booking writes for one
// listing, creating it on first use. Locks are never removed; the map
// is bounded by the number of listings ever booked through this
// process.
func (s *BookingService) listingLock(listingID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[listingID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[listingID] = l
	}
	return l
}

// CreateBooking books the half-open range [start, end) on a listing
// for the acting renter. Preconditions are checked in order, each a
// distinct failure: the listing exists and is ACTIVE, the actor is
// not its owner, the end date is after the start date, the start
// date is not in the past, and no non-cancelled booking overlaps the
// range. A request for a missing listing therefore reports the
// missing listing even when its dates are also bad. On success the
// booking is persisted CONFIRMED with its price locked at
// nights * nightly price, and the search and popularity caches are
// invalidated after the commit. Returns the new booking's ID.
func (s *BookingService) CreateBooking(ctx context.Context, actorID, listingID uint64, start, end time.Time) (uint64, error) {
	start, end = dateOnly(start), dateOnly(end)

	lock := s.listingLock(listingID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	listing, err := s.listings.GetByIDForUpdateTx(ctx, tx, listingID)
	if err != nil {
		return 0, err
	}
	if listing.Status != model.ListingStatusActive {
		return 0, repository.ErrListingUnavailable
	}
	if listing.OwnerID == actorID {
		return 0, repository.ErrOwnListing
	}
	if !end.After(start) {
		return 0, repository.ErrInvalidDates
	}
	if start.Before(dateOnly(s.now())) {
		return 0, repository.ErrPastStartDate
	}

	existing, err := s.bookings.ListActiveByListingTx(ctx, tx, listingID)
	if err != nil {
		return 0, err
	}
	if rangeConflicts(start, end, existing) {
		return 0, repository.ErrDateConflict
	}

	nights := nightsBetween(start, end)
	booking := &model.Booking{
		ListingID:  listingID,
		RenterID:   actorID,
		StartDate:  start,
		EndDate:    end,
		TotalCents: nights * listing.PriceCents,
		Status:     model.BookingStatusConfirmed,
	}
	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	// Invalidate only after the write is durable; a failed publish or
	// invalidation degrades to staleness, never rolls back the booking.
	if s.cache != nil {
		s.cache.BookingsChanged(ctx)
	}
	if s.events != nil {
		_ = s.events.BookingConfirmed(ctx, queue.BookingConfirmedEvent{
			BookingID:    booking.ID,
			ListingID:    listingID,
			ListingTitle: listing.Title,
			RenterID:     actorID,
			StartDate:    start.Format(time.DateOnly),
			EndDate:      end.Format(time.DateOnly),
			Nights:       nights,
			TotalCents:   booking.TotalCents,
			ConfirmedAt:  s.now().UTC().Format(time.RFC3339),
		})
	}
	return booking.ID, nil
}

// CancelBooking marks a booking CANCELLED. Only the booking's renter
// may cancel, an already cancelled booking cannot be cancelled again,
// and cancellation is rejected once the check-in date has begun. The
// freed range becomes bookable again, so the same caches as creation
// are dropped after the commit.
func (s *BookingService) CancelBooking(ctx context.Context, actorID, bookingID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if booking.RenterID != actorID {
		return repository.ErrForbidden
	}
	if booking.Status == model.BookingStatusCancelled {
		return repository.ErrAlreadyCancelled
	}
	if dateOnly(booking.StartDate).Before(dateOnly(s.now())) {
		return repository.ErrCancelAfterCheckIn
	}

	if err := s.bookings.CancelTx(ctx, tx, bookingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	if s.cache != nil {
		s.cache.BookingsChanged(ctx)
	}
	if s.events != nil {
		_ = s.events.BookingCancelled(ctx, queue.BookingCancelledEvent{
			BookingID:   bookingID,
			ListingID:   booking.ListingID,
			RenterID:    booking.RenterID,
			StartDate:   dateOnly(booking.StartDate).Format(time.DateOnly),
			EndDate:     dateOnly(booking.EndDate).Format(time.DateOnly),
			CancelledAt: s.now().UTC().Format(time.RFC3339),
		})
	}
	return nil
}

// CalculatePrice quotes the price for a stay without creating a
// booking. It is pure and idempotent: it reads the listing's nightly
// price and mutates nothing. The service fee is 5% of the subtotal
// rounded half-up to cents; the total is the subtotal plus the
// rounded fee.
func (s *BookingService) CalculatePrice(ctx context.Context, listingID uint64, start, end time.Time) (*PriceBreakdown, error) {
	start, end = dateOnly(start), dateOnly(end)
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, repository.ErrInvalidDates
	}
	pb := quotePrice(nightsBetween(start, end), listing.PriceCents)
	return &pb, nil
}

// IsRangeAvailable reports whether the half-open range [start, end)
// is free of non-cancelled bookings on the listing. It has no side
// effects and takes no lock; booking creation re-checks under the
// per-listing critical section, so a true result here is a preview,
// not a reservation.
func (s *BookingService) IsRangeAvailable(ctx context.Context, listingID uint64, start, end time.Time) (bool, error) {
	start, end = dateOnly(start), dateOnly(end)
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return false, err
	}
	if !end.After(start) {
		return false, repository.ErrInvalidDates
	}
	existing, err := s.bookings.ListActiveByListing(ctx, listingID)
	if err != nil {
		return false, err
	}
	return !rangeConflicts(start, end, existing), nil
}

// HistoryEntry is one booking in a renter's history, flagged with
// review eligibility for "leave a review" prompts.
type HistoryEntry struct {
	ID             uint64  `json:"id"`
	ListingID      uint64  `json:"listing_id"`
	ListingTitle   string  `json:"listing_title"`
	City           string  `json:"city"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalCents     int64   `json:"total_cents"`
	Total          float64 `json:"total"`
	Status         string  `json:"status"`
	HasReview      bool    `json:"has_review"`
	CanLeaveReview bool    `json:"can_leave_review"`
}

// History returns the renter's bookings, upcoming stays first in
// ascending start order, then past stays in descending end order.
func (s *BookingService) History(ctx context.Context, renterID uint64) ([]HistoryEntry, error) {
	rows, err := s.bookings.ListByRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	today := dateOnly(s.now())
	upcoming := func(b model.Booking) bool { return !dateOnly(b.StartDate).Before(today) }
	sort.SliceStable(rows, func(i, j int) bool {
		bi, bj := rows[i].Booking, rows[j].Booking
		ui, uj := upcoming(bi), upcoming(bj)
		if ui != uj {
			return ui
		}
		if ui {
			return bi.StartDate.Before(bj.StartDate)
		}
		return bj.EndDate.Before(bi.EndDate)
	})

	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		b := r.Booking
		out = append(out, HistoryEntry{
			ID:           b.ID,
			ListingID:    b.ListingID,
			ListingTitle: r.ListingTitle,
			City:         r.City,
			StartDate:    dateOnly(b.StartDate).Format(time.DateOnly),
			EndDate:      dateOnly(b.EndDate).Format(time.DateOnly),
			TotalCents:   b.TotalCents,
			Total:        float64(b.TotalCents) / 100.0,
			Status:       b.Status,
			HasReview:    r.HasReview,
			CanLeaveReview: !r.HasReview &&
				b.Status == model.BookingStatusConfirmed &&
				dateOnly(b.EndDate).Before(today),
		})
	}
	return out, nil
}
