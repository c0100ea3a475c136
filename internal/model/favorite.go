package model

import "time"

// Favorite marks a listing as saved by a renter.  Its identity is the
// (RenterID, ListingID) pair; a favorite has no lifecycle beyond
// existing or not, so the row carries no status column.
//
// Fields:
//  RenterID  – user who saved the listing.
//  ListingID – saved listing.
//  CreatedAt – when the listing was saved.
type Favorite struct {
	RenterID  uint64    // favorites.renter_id
	ListingID uint64    // favorites.listing_id
	CreatedAt time.Time // favorites.created_at
}
