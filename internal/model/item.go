package model

import "time"

// Item is a catalog entry belonging to exactly one category.
// Only the owner may edit or delete it.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Picture     string    `json:"picture"`
	CategoryID  int64     `json:"category_id"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// OwnedBy reports whether the item belongs to the given user.
func (i *Item) OwnedBy(userID int64) bool {
	return i.OwnerID == userID
}
