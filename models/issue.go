package models

import (
	"time"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads        IssueCategory = "Roads"
	Lighting     IssueCategory = "Lighting"
	WaterSupply  IssueCategory = "Water Supply"
	Cleanliness  IssueCategory = "Cleanliness"
	PublicSafety IssueCategory = "Public Safety"
	Obstructions IssueCategory = "Obstructions"
)

// Categories returns every category in declaration order.
func Categories() []IssueCategory {
	return []IssueCategory{Roads, Lighting, WaterSupply, Cleanliness, PublicSafety, Obstructions}
}

func (c IssueCategory) Valid() bool {
	switch c {
	case Roads, Lighting, WaterSupply, Cleanliness, PublicSafety, Obstructions:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Reported   IssueStatus = "Reported"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

// Statuses returns every status in lifecycle order.
func Statuses() []IssueStatus {
	return []IssueStatus{Reported, InProgress, Resolved}
}

func (s IssueStatus) Valid() bool {
	switch s {
	case Reported, InProgress, Resolved:
		return true
	}
	return false
}

// Rank orders statuses along the lifecycle. Unknown statuses rank -1.
func (s IssueStatus) Rank() int {
	switch s {
	case Reported:
		return 0
	case InProgress:
		return 1
	case Resolved:
		return 2
	}
	return -1
}

// ReporterType enum
type ReporterType string

const (
	Anonymous ReporterType = "Anonymous"
	Verified  ReporterType = "Verified"
)

func (r ReporterType) Valid() bool {
	switch r {
	case Anonymous, Verified:
		return true
	}
	return false
}

// MaxIssueImages caps the number of image references on one report.
const MaxIssueImages = 5

// Location is a WGS84 latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether the pair lies within the WGS84 coordinate ranges.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID           string        `bson:"_id" json:"id"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description" json:"description"`
	Category     IssueCategory `bson:"category" json:"category"`
	Status       IssueStatus   `bson:"status" json:"status"`
	Images       []string      `bson:"images" json:"images"`
	LocationLat  float64       `bson:"location_lat" json:"location_lat"`
	LocationLng  float64       `bson:"location_lng" json:"location_lng"`
	ReporterType ReporterType  `bson:"reporter_type" json:"reporter_type"`
	UserID       *string       `bson:"user_id,omitempty" json:"user_id"`
	Flagged      bool          `bson:"flagged" json:"flagged"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// Location returns the issue's coordinates.
func (i Issue) Location() Location {
	return Location{Lat: i.LocationLat, Lng: i.LocationLng}
}

// DistancedIssue is an issue annotated with its distance from a reference point.
type DistancedIssue struct {
	Issue
	Distance          float64 `json:"distance"`
	DistanceFormatted string  `json:"distance_formatted,omitempty"`
}
