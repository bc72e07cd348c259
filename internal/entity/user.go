package entity

import "time"

// Profile relationship names.
const (
	RelationBusinesses = "businesses"
	RelationReviews    = "reviews"
	RelationPhotos     = "photos"
	RelationPositions  = "positions"
)

// Relations lists every relationship array carried by a UserProfile.
var Relations = []string{RelationBusinesses, RelationReviews, RelationPhotos, RelationPositions}

// UserProfile is the document-store view of a user account.
type UserProfile struct {
	ID         string  `json:"_id"`
	UserID     string  `json:"userID"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password,omitempty"`
	Businesses []int64 `json:"businesses"`
	Reviews    []int64 `json:"reviews"`
	Photos     []int64 `json:"photos"`
	Positions  []int64 `json:"positions"`
}

// SetRelation stores ids under the named relationship array.
func (u *UserProfile) SetRelation(relation string, ids []int64) {
	switch relation {
	case RelationBusinesses:
		u.Businesses = ids
	case RelationReviews:
		u.Reviews = ids
	case RelationPhotos:
		u.Photos = ids
	case RelationPositions:
		u.Positions = ids
	}
}

// LinkEvent is a profile append that failed after the relational insert succeeded
// and is queued for reconciliation.
type LinkEvent struct {
	UserID     string    `json:"userID"`
	Relation   string    `json:"relation"`
	ForeignKey int64     `json:"foreignKey"`
	OccurredAt time.Time `json:"occurredAt"`
}

// IsRelation reports whether name is a known relationship array.
func IsRelation(name string) bool {
	for _, r := range Relations {
		if r == name {
			return true
		}
	}
	return false
}
