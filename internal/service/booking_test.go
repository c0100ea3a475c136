package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkh/rental-marketplace/internal/queue"
	"github.com/maxkh/rental-marketplace/internal/repository"
)

// fakeInvalidator records invalidation calls so tests can assert that
// caches are dropped after commits and left alone on failures.
type fakeInvalidator struct {
	mu              sync.Mutex
	bookingsChanged int
	listingsChanged []uint64
}

func (f *fakeInvalidator) BookingsChanged(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingsChanged++
}

func (f *fakeInvalidator) ListingChanged(ctx context.Context, listingID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listingsChanged = append(f.listingsChanged, listingID)
}

// fakePublisher captures published events in memory.
type fakePublisher struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.BookingCancelledEvent
}

func (f *fakePublisher) BookingConfirmed(ctx context.Context, e queue.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, e)
	return nil
}

func (f *fakePublisher) BookingCancelled(ctx context.Context, e queue.BookingCancelledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, e)
	return nil
}

// today is the pinned clock for every booking test.
var today = date(2026, time.January, 1)

func newBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *fakeInvalidator, *fakePublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	svc := NewBookingService(db, repository.NewListingRepo(db), repository.NewBookingRepo(db), inv, pub)
	svc.now = func() time.Time { return today }
	return svc, mock, inv, pub
}

func listingRows(id, ownerID uint64, priceCents int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "title", "description", "city", "district",
		"property_type", "price_cents", "floor", "average_rating", "status",
		"created_at", "updated_at",
	}).AddRow(id, ownerID, "Sea View Flat", "Two rooms near the shore", "Batumi", "Old Town",
		"APARTMENT", priceCents, nil, nil, status, today, today)
}

func bookingRowColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "listing_id", "renter_id", "start_date", "end_date",
		"total_cents", "status", "created_at", "updated_at",
	})
}

func TestCreateBooking_Success(t *testing.T) {
	svc, mock, inv, pub := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(7), "2026-01-10", "2026-01-15", int64(2750000), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 10), date(2026, time.January, 15))

	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, 1, inv.bookingsChanged)
	require.Len(t, pub.confirmed, 1)
	assert.Equal(t, uint64(42), pub.confirmed[0].BookingID)
	assert.Equal(t, int64(5), pub.confirmed[0].Nights)
	assert.Equal(t, int64(2750000), pub.confirmed[0].TotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_BackToBackRangesDoNotConflict(t *testing.T) {
	svc, mock, inv, _ := newBookingService(t)

	// An existing stay occupies [Jan 10, Jan 15); a new stay starting
	// exactly on Jan 15 hands over on checkout day and must succeed.
	existing := bookingRowColumns().AddRow(
		9, 1, 5, date(2026, time.January, 10), date(2026, time.January, 15),
		2750000, "CONFIRMED", today, today)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(existing)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(7), "2026-01-15", "2026-01-20", int64(2750000), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectCommit()

	id, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 15), date(2026, time.January, 20))

	require.NoError(t, err)
	assert.Equal(t, uint64(43), id)
	assert.Equal(t, 1, inv.bookingsChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	svc, mock, inv, pub := newBookingService(t)

	existing := bookingRowColumns().AddRow(
		9, 1, 5, date(2026, time.January, 10), date(2026, time.January, 15),
		2750000, "CONFIRMED", today, today)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(existing)
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 14), date(2026, time.January, 16))

	assert.ErrorIs(t, err, repository.ErrDateConflict)
	assert.Zero(t, inv.bookingsChanged, "caches stay untouched on failure")
	assert.Empty(t, pub.confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_ValidatesDates(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	// The listing is looked up first; date validation only runs once
	// the listing is known to exist, be ACTIVE and belong to someone
	// else, so each case locks the row and rolls back.
	cases := []struct {
		name       string
		start, end time.Time
		want       error
	}{
		{"zero nights", date(2026, time.January, 10), date(2026, time.January, 10), repository.ErrInvalidDates},
		{"reversed range", date(2026, time.January, 15), date(2026, time.January, 10), repository.ErrInvalidDates},
		{"start in the past", date(2025, time.December, 28), date(2026, time.January, 10), repository.ErrPastStartDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
				WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
			mock.ExpectRollback()

			_, err := svc.CreateBooking(context.Background(), 7, 1, tc.start, tc.end)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_MissingListingWinsOverBadDates(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	// Reversed dates on a listing that does not exist: the caller is
	// told about the missing listing, not the dates.
	_, err := svc.CreateBooking(context.Background(), 7, 404,
		date(2026, time.January, 15), date(2026, time.January, 10))

	assert.ErrorIs(t, err, repository.ErrListingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_StartingTodayAllowed(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 100000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(7), "2026-01-01", "2026-01-02", int64(100000), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectCommit()

	_, err := svc.CreateBooking(context.Background(), 7, 1, today, date(2026, time.January, 2))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_OwnListingRejected(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 7, 550000, "ACTIVE"))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 10), date(2026, time.January, 15))

	assert.ErrorIs(t, err, repository.ErrOwnListing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_InactiveListingRejected(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "INACTIVE"))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 10), date(2026, time.January, 15))

	assert.ErrorIs(t, err, repository.ErrListingUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_SerializedPerListing(t *testing.T) {
	svc, mock, inv, _ := newBookingService(t)

	// Two requests race for the same range. The per-listing lock
	// serializes them, so exactly one runs the full insert sequence
	// and the other observes the fresh booking and fails the check.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(50, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns().AddRow(
			50, 1, 7, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CONFIRMED", today, today))
	mock.ExpectRollback()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), uint64(7+i), 1,
				date(2026, time.January, 10), date(2026, time.January, 15))
		}(i)
	}
	wg.Wait()

	if errs[0] == nil {
		assert.ErrorIs(t, errs[1], repository.ErrDateConflict)
	} else {
		assert.ErrorIs(t, errs[0], repository.ErrDateConflict)
		assert.NoError(t, errs[1])
	}
	assert.Equal(t, 1, inv.bookingsChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_Success(t *testing.T) {
	svc, mock, inv, pub := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = ").WithArgs(uint64(42)).
		WillReturnRows(bookingRowColumns().AddRow(
			42, 1, 7, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CONFIRMED", today, today))
	mock.ExpectExec("UPDATE bookings SET status = 'CANCELLED'").WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.CancelBooking(context.Background(), 7, 42)

	require.NoError(t, err)
	assert.Equal(t, 1, inv.bookingsChanged)
	require.Len(t, pub.cancelled, 1)
	assert.Equal(t, uint64(42), pub.cancelled[0].BookingID)
	assert.Equal(t, "2026-01-10", pub.cancelled[0].StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_OnlyRenterMayCancel(t *testing.T) {
	svc, mock, inv, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = ").WithArgs(uint64(42)).
		WillReturnRows(bookingRowColumns().AddRow(
			42, 1, 7, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CONFIRMED", today, today))
	mock.ExpectRollback()

	err := svc.CancelBooking(context.Background(), 8, 42)

	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Zero(t, inv.bookingsChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = ").WithArgs(uint64(42)).
		WillReturnRows(bookingRowColumns().AddRow(
			42, 1, 7, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CANCELLED", today, today))
	mock.ExpectRollback()

	err := svc.CancelBooking(context.Background(), 7, 42)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_RejectedAfterCheckIn(t *testing.T) {
	svc, mock, _, pub := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = ").WithArgs(uint64(42)).
		WillReturnRows(bookingRowColumns().AddRow(
			42, 1, 7, date(2025, time.December, 30), date(2026, time.January, 4),
			2750000, "CONFIRMED", today, today))
	mock.ExpectRollback()

	err := svc.CancelBooking(context.Background(), 7, 42)
	assert.ErrorIs(t, err, repository.ErrCancelAfterCheckIn)
	assert.Empty(t, pub.cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalculatePrice(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectQuery("FROM listings WHERE id = ").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))

	pb, err := svc.CalculatePrice(context.Background(), 1,
		date(2026, time.January, 10), date(2026, time.January, 15))

	require.NoError(t, err)
	assert.Equal(t, int64(5), pb.Nights)
	assert.Equal(t, int64(2750000), pb.SubtotalCents)
	assert.Equal(t, int64(137500), pb.ServiceFeeCents)
	assert.Equal(t, int64(2887500), pb.TotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRangeAvailable(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	mock.ExpectQuery("FROM listings WHERE id = ").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns().AddRow(
			9, 1, 5, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CONFIRMED", today, today))

	ok, err := svc.IsRangeAvailable(context.Background(), 1,
		date(2026, time.January, 12), date(2026, time.January, 14))
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery("FROM listings WHERE id = ").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())

	ok, err = svc.IsRangeAvailable(context.Background(), 1,
		date(2026, time.January, 12), date(2026, time.January, 14))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Cancelling a booking frees its range: book [Jan 10, Jan 15), cancel
// it, and the same range reads as available again. The active-booking
// query filters CANCELLED rows in SQL, so the freed range shows up as
// an empty result set.
func TestBooking_CancelFreesRangeForRebooking(t *testing.T) {
	svc, mock, inv, pub := newBookingService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM listings WHERE id = (.+) FOR UPDATE").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(1), uint64(7), "2026-01-10", "2026-01-15", int64(2750000), "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	id, err := svc.CreateBooking(context.Background(), 7, 1,
		date(2026, time.January, 10), date(2026, time.January, 15))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = ").WithArgs(id).
		WillReturnRows(bookingRowColumns().AddRow(
			id, 1, 7, date(2026, time.January, 10), date(2026, time.January, 15),
			2750000, "CONFIRMED", today, today))
	mock.ExpectExec("UPDATE bookings SET status = 'CANCELLED'").WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.CancelBooking(context.Background(), 7, id))

	mock.ExpectQuery("FROM listings WHERE id = ").WithArgs(uint64(1)).
		WillReturnRows(listingRows(1, 3, 550000, "ACTIVE"))
	mock.ExpectQuery("FROM bookings").WithArgs(uint64(1)).
		WillReturnRows(bookingRowColumns())

	ok, err := svc.IsRangeAvailable(context.Background(), 1,
		date(2026, time.January, 10), date(2026, time.January, 15))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 2, inv.bookingsChanged)
	require.Len(t, pub.confirmed, 1)
	require.Len(t, pub.cancelled, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_OrderingAndReviewFlags(t *testing.T) {
	svc, mock, _, _ := newBookingService(t)

	rows := sqlmock.NewRows([]string{
		"id", "listing_id", "renter_id", "start_date", "end_date",
		"total_cents", "status", "created_at", "updated_at",
		"title", "city", "has_review",
	}).
		// Past stay, reviewed.
		AddRow(1, 1, 7, date(2025, time.November, 1), date(2025, time.November, 5),
			400000, "CONFIRMED", today, today, "Old Town Loft", "Tbilisi", true).
		// Past stay, not reviewed: eligible.
		AddRow(2, 2, 7, date(2025, time.December, 10), date(2025, time.December, 12),
			200000, "CONFIRMED", today, today, "Sea View Flat", "Batumi", false).
		// Upcoming, further out.
		AddRow(3, 3, 7, date(2026, time.February, 1), date(2026, time.February, 3),
			300000, "CONFIRMED", today, today, "Ski Chalet", "Gudauri", false).
		// Upcoming, sooner.
		AddRow(4, 4, 7, date(2026, time.January, 10), date(2026, time.January, 12),
			250000, "CONFIRMED", today, today, "City Studio", "Tbilisi", false).
		// Cancelled past stay: never eligible.
		AddRow(5, 5, 7, date(2025, time.October, 1), date(2025, time.October, 3),
			150000, "CANCELLED", today, today, "Garden House", "Kutaisi", false)

	mock.ExpectQuery("FROM bookings b").WithArgs(uint64(7)).WillReturnRows(rows)

	entries, err := svc.History(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Upcoming stays first in ascending start order, then past stays
	// in descending end order.
	ids := []uint64{entries[0].ID, entries[1].ID, entries[2].ID, entries[3].ID, entries[4].ID}
	assert.Equal(t, []uint64{4, 3, 2, 1, 5}, ids)

	byID := map[uint64]HistoryEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	assert.False(t, byID[1].CanLeaveReview, "already reviewed")
	assert.True(t, byID[2].CanLeaveReview, "past, confirmed, unreviewed")
	assert.False(t, byID[3].CanLeaveReview, "not ended yet")
	assert.False(t, byID[5].CanLeaveReview, "cancelled")
	assert.Equal(t, 2000.00, byID[2].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
