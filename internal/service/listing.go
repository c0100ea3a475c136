package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/maxkh/rental-marketplace/internal/cache"
	"github.com/maxkh/rental-marketplace/internal/repository"
)

// ListingService serves the cached read views over listings: search
// results, the popular cities ranking and per-listing detail pages.
// All three are read-through: a cache miss runs the underlying query
// and repopulates the entry. Cached payloads are the marshalled JSON
// response bodies, so handlers can write them without re-encoding.
type ListingService struct {
	listings *repository.ListingRepo
	reviews  *repository.ReviewRepo
	store    *cache.Store
}

// NewListingService constructs a ListingService. store may wrap a nil
// Redis client, in which case every read computes fresh data.
func NewListingService(listings *repository.ListingRepo, reviews *repository.ReviewRepo, store *cache.Store) *ListingService {
	if listings == nil || reviews == nil || store == nil {
		panic("nil dependency passed to NewListingService")
	}
	return &ListingService{listings: listings, reviews: reviews, store: store}
}

// searchKeyParts flattens the full filter tuple into the cache key.
// Every field participates so that distinct filters never share an
// entry.
func searchKeyParts(q repository.ListingSearchQuery) []string {
	floor := "-"
	if q.Floor != nil {
		floor = fmt.Sprintf("%d", *q.Floor)
	}
	start, end := "-", "-"
	if q.StartDate != nil {
		start = q.StartDate.Format(time.DateOnly)
	}
	if q.EndDate != nil {
		end = q.EndDate.Format(time.DateOnly)
	}
	return []string{
		q.City, q.District, q.PropertyType,
		fmt.Sprintf("%d", q.MinPriceCents), fmt.Sprintf("%d", q.MaxPriceCents),
		floor, start, end,
	}
}

// Search returns active listings matching the filter tuple as a ready
// JSON array, cached under the tuple's key until the next booking or
// listing mutation invalidates the search scope.
func (s *ListingService) Search(ctx context.Context, q repository.ListingSearchQuery) (json.RawMessage, error) {
	key := s.store.SearchKey(searchKeyParts(q)...)
	return s.store.GetOrCompute(ctx, key, func() ([]byte, error) {
		rows, err := s.listings.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
}

// PopularCity is one ranking entry: a city with its active listing
// and booking counts and the derived popularity score.
type PopularCity struct {
	City     string `json:"city"`
	Listings int64  `json:"listings"`
	Bookings int64  `json:"bookings"`
	Score    int64  `json:"score"`
}

// PopularCities returns the top cities ranked by popularity score
// (bookings weighted double against listings), cached per requested
// result size.
func (s *ListingService) PopularCities(ctx context.Context, limit int) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	key := s.store.PopularKey(limit)
	return s.store.GetOrCompute(ctx, key, func() ([]byte, error) {
		stats, err := s.listings.CityStatistics(ctx)
		if err != nil {
			return nil, err
		}
		ranked := make([]PopularCity, 0, len(stats))
		for _, st := range stats {
			ranked = append(ranked, PopularCity{
				City:     st.City,
				Listings: st.Listings,
				Bookings: st.Bookings,
				Score:    st.Bookings*2 + st.Listings,
			})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}
		return json.Marshal(ranked)
	})
}

// listingDetail is the cached, actor-neutral detail payload. Fields
// that depend on who is asking (favorite flags, ownership) are
// resolved by the handler on top of this.
type listingDetail struct {
	ID            uint64                     `json:"id"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	City          string                     `json:"city"`
	District      string                     `json:"district"`
	PropertyType  string                     `json:"property_type"`
	PriceCents    int64                      `json:"price_cents"`
	Price         float64                    `json:"price"`
	Floor         *int                       `json:"floor,omitempty"`
	AverageRating *float64                   `json:"average_rating,omitempty"`
	Status        string                     `json:"status"`
	Reviews       []repository.ListingReview `json:"reviews"`
}

// Details returns the listing's detail view with its reviews, cached
// per listing ID. The entry is invalidated whenever the listing's
// review set changes or the listing itself is edited.
func (s *ListingService) Details(ctx context.Context, listingID uint64) (json.RawMessage, error) {
	key := s.store.ListingKey(listingID)
	return s.store.GetOrCompute(ctx, key, func() ([]byte, error) {
		l, err := s.listings.GetByID(ctx, listingID)
		if err != nil {
			return nil, err
		}
		reviews, err := s.reviews.ListByListing(ctx, listingID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(listingDetail{
			ID:            l.ID,
			Title:         l.Title,
			Description:   l.Description,
			City:          l.City,
			District:      l.District,
			PropertyType:  l.PropertyType,
			PriceCents:    l.PriceCents,
			Price:         float64(l.PriceCents) / 100.0,
			Floor:         l.Floor,
			AverageRating: l.AverageRating,
			Status:        l.Status,
			Reviews:       reviews,
		})
	})
}
