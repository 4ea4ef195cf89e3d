package models

import (
	"time"
)

// SharePreference controls who may see a person's profile and gymas.
type SharePreference string

const (
	// ShareSolo hides the profile from everyone.
	ShareSolo SharePreference = "solo"
	// ShareGymbros limits the profile to accepted friends.
	ShareGymbros SharePreference = "gymbros"
	// SharePub makes the profile public.
	SharePub SharePreference = "pub"
)

// Valid reports whether p is one of the known preferences.
func (p SharePreference) Valid() bool {
	switch p {
	case ShareSolo, ShareGymbros, SharePub:
		return true
	}
	return false
}

// Sex is the self-declared sex shown on a profile.
type Sex string

const (
	SexMale   Sex = "m"
	SexFemale Sex = "f"
	SexOther  Sex = "o"
)

// ProfileURLMaxLen is the maximum length of a profile slug.
const ProfileURLMaxLen = 32

// Person is the public profile of a user. Its ID equals the owning user's ID.
type Person struct {
	ID          uint            `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ProfileURL  string          `gorm:"uniqueIndex;size:32;not null" json:"profile_url"`
	FirstName   string          `gorm:"size:64;not null" json:"first_name"`
	LastName    string          `gorm:"size:64;not null" json:"last_name"`
	DateOfBirth *time.Time      `gorm:"type:date" json:"date_of_birth,omitempty"`
	Sex         Sex             `gorm:"type:varchar(1)" json:"sex"`
	City        string          `gorm:"size:128" json:"city,omitempty"`
	ProfileText string          `gorm:"size:1024" json:"profile_text,omitempty"`
	GymaShare   SharePreference `gorm:"type:varchar(10);not null;default:'pub'" json:"gyma_share"`
	PfPathL     string          `gorm:"column:pf_path_l;size:255" json:"pf_path_l,omitempty"`
	PfPathM     string          `gorm:"column:pf_path_m;size:255" json:"pf_path_m,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// TableName specifies the table name for GORM
func (Person) TableName() string {
	return "persons"
}

// Summary returns the reduced view used in friend lists and feed entries.
func (p *Person) Summary() PersonSummary {
	return PersonSummary{
		ProfileURL: p.ProfileURL,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Sex:        p.Sex,
		PfPathM:    p.PfPathM,
	}
}

// PersonSummary is the owner summary attached to friend lists and gymas.
type PersonSummary struct {
	ProfileURL string `json:"profile_url"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Sex        Sex    `json:"sex"`
	PfPathM    string `json:"pf_path_m,omitempty"`
}

// Summaries maps persons to their summaries, preserving order.
func Summaries(persons []Person) []PersonSummary {
	out := make([]PersonSummary, 0, len(persons))
	for i := range persons {
		out = append(out, persons[i].Summary())
	}
	return out
}
