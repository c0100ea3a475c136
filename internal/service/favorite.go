package service

import (
	"context"

	"github.com/maxkh/rental-marketplace/internal/repository"
)

// FavoriteService manages a renter's saved listings. Favorites are
// plain membership rows; the only rules are that a renter cannot save
// their own listing and cannot save the same listing twice.
type FavoriteService struct {
	favorites *repository.FavoriteRepo
	listings  *repository.ListingRepo
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(favorites *repository.FavoriteRepo, listings *repository.ListingRepo) *FavoriteService {
	if favorites == nil || listings == nil {
		panic("nil dependency passed to NewFavoriteService")
	}
	return &FavoriteService{favorites: favorites, listings: listings}
}

// Add saves a listing to the renter's favorites.
func (s *FavoriteService) Add(ctx context.Context, renterID, listingID uint64) error {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID == renterID {
		return repository.ErrOwnListing
	}
	exists, err := s.favorites.Exists(ctx, renterID, listingID)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrAlreadyFavorite
	}
	return s.favorites.Create(ctx, renterID, listingID)
}

// Remove drops a listing from the renter's favorites. Removing a
// listing that was never saved returns ErrFavoriteNotFound.
func (s *FavoriteService) Remove(ctx context.Context, renterID, listingID uint64) error {
	return s.favorites.Delete(ctx, renterID, listingID)
}

// List returns the renter's favorited listings, most recently saved
// first.
func (s *FavoriteService) List(ctx context.Context, renterID uint64) ([]repository.FavoriteListing, error) {
	return s.favorites.ListByRenter(ctx, renterID)
}
