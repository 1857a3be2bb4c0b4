package geo

import (
	"sort"
	"strings"

	"civictrack/models"
)

// All is the sentinel that disables the category or status criterion.
const All = "All"

// FilterOptions are independently optional criteria combined with AND.
// A zero value matches every issue.
type FilterOptions struct {
	Category string  `form:"category"`
	Status   string  `form:"status"`
	RadiusKm float64 `form:"distance"`
	Search   string  `form:"search"`
}

// FilterIssues returns the issues that satisfy every criterion in opts, in
// input order. The radius criterion applies only when both a positive radius
// and a user location are supplied, and an issue exactly on the boundary is
// kept.
func FilterIssues(issues []models.Issue, opts FilterOptions, userLocation *models.Location) []models.Issue {
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	filtered := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if !matchesCategory(issue, opts.Category) {
			continue
		}
		if !matchesStatus(issue, opts.Status) {
			continue
		}
		if opts.RadiusKm > 0 && userLocation != nil {
			d := DistanceKm(userLocation.Lat, userLocation.Lng, issue.LocationLat, issue.LocationLng)
			if d > opts.RadiusKm {
				continue
			}
		}
		if search != "" && !matchesSearch(issue, search) {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered
}

func matchesCategory(issue models.Issue, category string) bool {
	return category == "" || category == All || string(issue.Category) == category
}

func matchesStatus(issue models.Issue, status string) bool {
	return status == "" || status == All || string(issue.Status) == status
}

// term must already be lower-cased.
func matchesSearch(issue models.Issue, term string) bool {
	return strings.Contains(strings.ToLower(issue.Title), term) ||
		strings.Contains(strings.ToLower(issue.Description), term) ||
		strings.Contains(strings.ToLower(string(issue.Category)), term)
}

// SortIssuesByDistance annotates each issue with its distance from
// userLocation and returns a new slice ordered nearest first. Equal
// distances keep their input order. The input slice is not modified.
func SortIssuesByDistance(issues []models.Issue, userLocation models.Location) []models.DistancedIssue {
	sorted := make([]models.DistancedIssue, len(issues))
	for i, issue := range issues {
		d := DistanceKm(userLocation.Lat, userLocation.Lng, issue.LocationLat, issue.LocationLng)
		sorted[i] = models.DistancedIssue{
			Issue:             issue,
			Distance:          d,
			DistanceFormatted: FormatDistance(d),
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})
	return sorted
}
