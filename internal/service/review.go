package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/maxkh/rental-marketplace/internal/model"
	"github.com/maxkh/rental-marketplace/internal/repository"
)

// ReviewService guards review creation behind the eligibility gate
// and keeps the listing's average rating a deterministic function of
// its current reviews. The rating recomputation always runs in the
// same transaction as the review mutation, so the aggregate is never
// observably stale from the listing's own perspective; cached search
// and detail views catch up at invalidation.
type ReviewService struct {
	db       *sql.DB
	bookings *repository.BookingRepo
	reviews  *repository.ReviewRepo
	listings *repository.ListingRepo
	cache    Invalidator

	now func() time.Time
}

// NewReviewService constructs a ReviewService. cache may be nil,
// which disables detail-view invalidation.
func NewReviewService(db *sql.DB, bookings *repository.BookingRepo, reviews *repository.ReviewRepo, listings *repository.ListingRepo, cache Invalidator) *ReviewService {
	if db == nil || bookings == nil || reviews == nil || listings == nil {
		panic("nil dependency passed to NewReviewService")
	}
	return &ReviewService{
		db:       db,
		bookings: bookings,
		reviews:  reviews,
		listings: listings,
		cache:    cache,
		now:      time.Now,
	}
}

// CreateReview creates a first-time review for a completed stay.
// Preconditions are checked in order, each a distinct failure: the
// booking exists, the actor is its renter, the stay ended strictly
// before today (same-day checkout is not yet eligible), the booking
// is not cancelled, no review exists for it yet, and the rating is an
// integer in [1,5]. On success the review is persisted with listing
// and guest denormalized from the booking and the listing's average
// rating is recomputed in the same transaction. Returns the new
// review's ID.
func (s *ReviewService) CreateReview(ctx context.Context, actorID, bookingID uint64, rating int, comment string) (uint64, error) {
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

	booking, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return 0, err
	}
	if booking.RenterID != actorID {
		return 0, repository.ErrForbidden
	}
	if !dateOnly(booking.EndDate).Before(dateOnly(s.now())) {
		return 0, repository.ErrBookingNotEnded
	}
	if booking.Status == model.BookingStatusCancelled {
		return 0, repository.ErrBookingCancelled
	}
	exists, err := s.reviews.ExistsByBookingTx(ctx, tx, bookingID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, repository.ErrReviewExists
	}
	if rating < 1 || rating > 5 {
		return 0, repository.ErrRatingOutOfRange
	}

	review := &model.Review{
		BookingID: bookingID,
		ListingID: booking.ListingID,
		GuestID:   booking.RenterID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviews.CreateTx(ctx, tx, review); err != nil {
		return 0, err
	}
	if err := s.recomputeAverageTx(ctx, tx, booking.ListingID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true

	if s.cache != nil {
		s.cache.ListingChanged(ctx, booking.ListingID)
	}
	return review.ID, nil
}

// DeleteReview removes a review. Only an admin actor may delete; the
// affected listing's average rating is recomputed in the same
// transaction as the delete.
func (s *ReviewService) DeleteReview(ctx context.Context, actorRole string, reviewID uint64) error {
	if actorRole != model.RoleAdmin {
		return repository.ErrForbidden
	}
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

	review, err := s.reviews.GetByIDTx(ctx, tx, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteTx(ctx, tx, reviewID); err != nil {
		return err
	}
	if err := s.recomputeAverageTx(ctx, tx, review.ListingID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	if s.cache != nil {
		s.cache.ListingChanged(ctx, review.ListingID)
	}
	return nil
}

// recomputeAverageTx rewrites the listing's derived average rating
// from the current review set. With no reviews left the column goes
// back to NULL, not zero. The mean is kept as a raw float without
// rounding.
func (s *ReviewService) recomputeAverageTx(ctx context.Context, tx *sql.Tx, listingID uint64) error {
	ratings, err := s.reviews.RatingsByListingTx(ctx, tx, listingID)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		return s.listings.UpdateAverageRatingTx(ctx, tx, listingID, nil)
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return s.listings.UpdateAverageRatingTx(ctx, tx, listingID, &avg)
}

// ReviewableBookings returns the renter's confirmed bookings that
// ended before today and have no review yet.
func (s *ReviewService) ReviewableBookings(ctx context.Context, renterID uint64) ([]HistoryEntry, error) {
	rows, err := s.bookings.ListReviewableByRenter(ctx, renterID, dateOnly(s.now()))
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		b := r.Booking
		out = append(out, HistoryEntry{
			ID:             b.ID,
			ListingID:      b.ListingID,
			ListingTitle:   r.ListingTitle,
			City:           r.City,
			StartDate:      dateOnly(b.StartDate).Format(time.DateOnly),
			EndDate:        dateOnly(b.EndDate).Format(time.DateOnly),
			TotalCents:     b.TotalCents,
			Total:          float64(b.TotalCents) / 100.0,
			Status:         b.Status,
			HasReview:      false,
			CanLeaveReview: true,
		})
	}
	return out, nil
}

// ListingReviews returns all reviews of a listing, newest first.
func (s *ReviewService) ListingReviews(ctx context.Context, listingID uint64) ([]repository.ListingReview, error) {
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.reviews.ListByListing(ctx, listingID)
}
