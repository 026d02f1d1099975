package model

import "time"

// Category is a named grouping of items owned by a single user.
// Only the owner may rename or delete it.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnedBy reports whether the category belongs to the given user.
func (c *Category) OwnedBy(userID int64) bool {
	return c.OwnerID == userID
}
