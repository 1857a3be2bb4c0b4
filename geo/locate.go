package geo

import "civictrack/models"

// LocationSource records which input ResolveLocation used.
type LocationSource string

const (
	SourceRequest LocationSource = "request"
	SourceProfile LocationSource = "profile"
	SourceDefault LocationSource = "default"
)

// ResolveLocation picks the caller's position. An explicit, in-range request
// location wins, then the profile's saved home location, then fallback.
// The same inputs always give the same answer.
func ResolveLocation(requested *models.Location, profile *models.Profile, fallback models.Location) (models.Location, LocationSource) {
	if requested != nil && requested.Valid() {
		return *requested, SourceRequest
	}
	if profile != nil {
		if home, ok := profile.HomeLocation(); ok && home.Valid() {
			return home, SourceProfile
		}
	}
	return fallback, SourceDefault
}
