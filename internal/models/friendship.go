package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendshipStatus represents the stored status of a friendship edge.
type FriendshipStatus string

const (
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship request.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusBlocked indicates that PersonID has blocked FriendID.
	FriendshipStatusBlocked FriendshipStatus = "blocked"
)

// Friendship is the single edge between two persons. PersonID is the initiator
// of a pending or accepted edge and the blocker of a blocked one. PairLow and
// PairHigh hold the unordered pair so the unique index rejects a second edge
// in either direction.
type Friendship struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	PersonID  uint             `gorm:"not null;index" json:"person_id"`
	FriendID  uint             `gorm:"not null;index" json:"friend_id"`
	Status    FriendshipStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_friendships_status" json:"status"`
	PairLow   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	PairHigh  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"-"`
	Since     time.Time        `gorm:"type:date;not null" json:"since"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeSave keeps the canonical pair columns in sync with the edge ends.
func (f *Friendship) BeforeSave(_ *gorm.DB) error {
	f.PairLow, f.PairHigh = CanonicalPair(f.PersonID, f.FriendID)
	return nil
}

// CanonicalPair orders two person ids so that low <= high.
func CanonicalPair(a, b uint) (low, high uint) {
	if a <= b {
		return a, b
	}
	return b, a
}

// Involves reports whether id is one of the two ends of the edge.
func (f *Friendship) Involves(id uint) bool {
	return f.PersonID == id || f.FriendID == id
}

// Other returns the end of the edge that is not id.
func (f *Friendship) Other(id uint) uint {
	if f.PersonID == id {
		return f.FriendID
	}
	return f.PersonID
}

// ViewerStatus is the friendship status as seen by one of the two parties.
type ViewerStatus string

const (
	ViewerStatusNone     ViewerStatus = ""
	ViewerStatusPending  ViewerStatus = "pending"
	ViewerStatusReceived ViewerStatus = "received"
	ViewerStatusAccepted ViewerStatus = "accepted"
	ViewerStatusBlocked  ViewerStatus = "blocked"
)
