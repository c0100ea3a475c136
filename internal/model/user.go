package model

import "time"

// Role names stored in the JWT "role" claim and the `users.role`
// column.  Authorization is expressed as attribute checks against
// these values rather than distinct actor types.
const (
	RoleRenter = "RENTER"
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Account creation and credential handling live in a
// separate identity service; this module only reads user rows to
// resolve ownership and display names.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique email address.
//  FirstName – given name, shown on reviews.
//  LastName  – family name.
//  Role      – role name (RENTER, OWNER or ADMIN).
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	FirstName string    // users.first_name
	LastName  string    // users.last_name
	Role      string    // users.role
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
	UpdatedAt time.Time // users.updated_at
}
