package model

import "time"

// Listing status values as stored in the `listings.status` column.
// Only ACTIVE listings may accept bookings.
const (
	ListingStatusDraft    = "DRAFT"
	ListingStatusActive   = "ACTIVE"
	ListingStatusInactive = "INACTIVE"
)

// Listing represents a rental listing record as stored in the
// `listings` table.  Money is stored as integer cents so that price
// arithmetic stays exact.  AverageRating is a derived value: it is
// always the arithmetic mean of the listing's current review ratings
// and is NULL until the first review exists.  It must never be
// mutated independently of the review set.
//
// Fields:
//  ID             – primary key identifier.
//  OwnerID        – user who owns the listing.
//  Title          – short display title.
//  Description    – free-form description text.
//  City           – address city, used by search filters.
//  District       – address district, used by search filters.
//  PropertyType   – property type name (e.g. APARTMENT, HOUSE).
//  PriceCents     – nightly price in cents.
//  Floor          – floor number (nullable).
//  AverageRating  – derived mean of review ratings (nullable).
//  Status         – listing state (DRAFT, ACTIVE, INACTIVE).
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type Listing struct {
	ID            uint64     // listings.id
	OwnerID       uint64     // listings.owner_id
	Title         string     // listings.title
	Description   string     // listings.description
	City          string     // listings.city
	District      string     // listings.district
	PropertyType  string     // listings.property_type
	PriceCents    int64      // listings.price_cents
	Floor         *int       // listings.floor (nullable)
	AverageRating *float64   // listings.average_rating (nullable, derived)
	Status        string     // listings.status
	CreatedAt     time.Time  // listings.created_at
	UpdatedAt     time.Time  // listings.updated_at
}
