package models

import (
	"time"
)

// ExerciseType is the category of an exercise and decides which measures apply.
type ExerciseType string

const (
	ExerciseTypeGains  ExerciseType = "gains"
	ExerciseTypeCardio ExerciseType = "cardio"
	ExerciseTypeOther  ExerciseType = "other"
)

// Gyma is a single gym visit. A nil TimeOfLeaving marks a visit in progress.
type Gyma struct {
	ID            uint       `gorm:"primaryKey" json:"gyma_id"`
	UserID        uint       `gorm:"not null;index" json:"-"`
	TimeOfArrival time.Time  `gorm:"not null" json:"time_of_arrival"`
	TimeOfLeaving *time.Time `gorm:"index:idx_gymas_leaving" json:"time_of_leaving"`
	Exercises     []Exercise `gorm:"foreignKey:GymaID;constraint:OnDelete:CASCADE" json:"exercises"`
	Owner         *Person    `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

// TableName specifies the table name for GORM
func (Gyma) TableName() string {
	return "gymas"
}

// InProgress reports whether the visit has not been ended yet.
func (g *Gyma) InProgress() bool {
	return g.TimeOfLeaving == nil
}

// Exercise belongs to exactly one Gyma and is removed with it.
type Exercise struct {
	ID          uint         `gorm:"primaryKey" json:"exercise_id"`
	GymaID      uint         `gorm:"not null;index" json:"-"`
	Name        string       `gorm:"column:exercise_name;size:64;not null" json:"exercise_name"`
	Type        ExerciseType `gorm:"column:exercise_type;type:varchar(10);not null" json:"exercise_type"`
	Count       *int         `json:"count"`
	Sets        *int         `json:"sets"`
	Weight      *float64     `json:"weight"`
	Minutes     *int         `json:"minutes"`
	Km          *float64     `json:"km"`
	Level       *int         `json:"level"`
	Description *string      `gorm:"size:64" json:"description"`
	CreatedAt   time.Time    `json:"-"`
}

// TableName specifies the table name for GORM
func (Exercise) TableName() string {
	return "exercises"
}

// FeedEntry is a completed gyma as delivered by the feeds. Person is omitted
// in the anonymous public feed.
type FeedEntry struct {
	GymaID        uint           `json:"gyma_id"`
	Person        *PersonSummary `json:"person"`
	TimeOfArrival time.Time      `json:"time_of_arrival"`
	TimeOfLeaving time.Time      `json:"time_of_leaving"`
	Exercises     []Exercise     `json:"exercises"`
}

// NewFeedEntry builds a feed entry from a completed gyma. withOwner controls
// whether the owner summary is attached.
func NewFeedEntry(g *Gyma, withOwner bool) FeedEntry {
	entry := FeedEntry{
		GymaID:        g.ID,
		TimeOfArrival: g.TimeOfArrival,
		Exercises:     g.Exercises,
	}
	if g.TimeOfLeaving != nil {
		entry.TimeOfLeaving = *g.TimeOfLeaving
	}
	if entry.Exercises == nil {
		entry.Exercises = []Exercise{}
	}
	if withOwner && g.Owner != nil {
		s := g.Owner.Summary()
		entry.Person = &s
	}
	return entry
}
