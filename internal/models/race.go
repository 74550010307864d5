package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RaceEntry represents one horse entered in one race, as read from the input table.
// Every field is kept as raw text; parsing and defaulting happen in the feature builder.
type RaceEntry struct {
	Index         int    `json:"-"`
	Venue         string `json:"venue"`
	RaceNumber    string `json:"race_number"`
	RaceName      string `json:"race_name"`
	Surface       string `json:"surface"`
	Distance      string `json:"distance"`
	HorseNumber   string `json:"horse_number"`
	HorseName     string `json:"horse_name"`
	Sex           string `json:"sex"`
	Age           string `json:"age"`
	Jockey        string `json:"jockey"`
	Trainer       string `json:"trainer"`
	Breeder       string `json:"breeder"`
	Sire          string `json:"sire"`
	BroodmareSire string `json:"broodmare_sire"`
	PostNumber    string `json:"post_number"`
}

// Key returns the race this entry belongs to.
func (e *RaceEntry) Key() RaceKey {
	return RaceKey{Venue: e.Venue, RaceNumber: e.RaceNumber}
}

// RaceKey identifies a race by venue and race number.
type RaceKey struct {
	Venue      string `json:"venue"`
	RaceNumber string `json:"race_number"`
}

// String returns the key as "<venue> <n>R".
func (k RaceKey) String() string {
	return fmt.Sprintf("%s %sR", k.Venue, k.RaceNumber)
}

// IsZero reports whether either part of the key is blank.
func (k RaceKey) IsZero() bool {
	return strings.TrimSpace(k.Venue) == "" || strings.TrimSpace(k.RaceNumber) == ""
}

// Less orders keys by venue, then by race number (numerically when both numbers parse).
func (k RaceKey) Less(other RaceKey) bool {
	if k.Venue != other.Venue {
		return k.Venue < other.Venue
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(k.RaceNumber), 64)
	b, errB := strconv.ParseFloat(strings.TrimSpace(other.RaceNumber), 64)
	if errA == nil && errB == nil {
		return a < b
	}
	return k.RaceNumber < other.RaceNumber
}

// Race groups the entries of a single race in input order.
type Race struct {
	Key     RaceKey
	Entries []RaceEntry
}

// Name returns the race name taken from the first entry.
func (r *Race) Name() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return r.Entries[0].RaceName
}

// Surface returns the track surface text taken from the first entry.
func (r *Race) Surface() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return r.Entries[0].Surface
}

// Distance returns the distance text taken from the first entry.
func (r *Race) Distance() string {
	if len(r.Entries) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Entries[0].Distance)
}
