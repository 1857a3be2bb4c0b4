package geo

import (
	"testing"

	"civictrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var home = models.Location{Lat: 17.3850, Lng: 78.4867}

func mockIssue(id string, category models.IssueCategory, status models.IssueStatus, lat, lng float64) models.Issue {
	return models.Issue{
		ID:          id,
		Title:       "Issue " + id,
		Description: "Description for " + id,
		Category:    category,
		Status:      status,
		LocationLat: lat,
		LocationLng: lng,
	}
}

func fixture() []models.Issue {
	return []models.Issue{
		mockIssue("a", models.Roads, models.Reported, 17.3850, 78.4867),
		mockIssue("b", models.Lighting, models.InProgress, 17.4000, 78.5000),
		mockIssue("c", models.Roads, models.Resolved, 17.5000, 78.6000),
		mockIssue("d", models.WaterSupply, models.Reported, 18.0000, 79.0000),
		mockIssue("e", models.Roads, models.Reported, 17.3900, 78.4900),
	}
}

func ids(issues []models.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.ID
	}
	return out
}

func TestFilterIssuesByCategory(t *testing.T) {
	got := FilterIssues(fixture(), FilterOptions{Category: "Roads"}, nil)
	assert.Equal(t, []string{"a", "c", "e"}, ids(got))
	for _, issue := range got {
		assert.Equal(t, models.Roads, issue.Category)
	}
}

func TestFilterIssuesAllSentinel(t *testing.T) {
	issues := fixture()
	assert.Equal(t, ids(issues), ids(FilterIssues(issues, FilterOptions{Category: All, Status: All}, nil)))
	assert.Equal(t, ids(issues), ids(FilterIssues(issues, FilterOptions{}, nil)))
}

func TestFilterIssuesByStatus(t *testing.T) {
	got := FilterIssues(fixture(), FilterOptions{Status: "Reported"}, nil)
	assert.Equal(t, []string{"a", "d", "e"}, ids(got))
}

func TestFilterIssuesCombinesCriteria(t *testing.T) {
	got := FilterIssues(fixture(), FilterOptions{Category: "Roads", Status: "Reported"}, nil)
	assert.Equal(t, []string{"a", "e"}, ids(got))
}

func TestFilterIssuesRadiusBoundaryIsInclusive(t *testing.T) {
	issues := fixture()
	target := issues[2]
	exact := DistanceKm(home.Lat, home.Lng, target.LocationLat, target.LocationLng)
	require.Greater(t, exact, 0.0)

	got := FilterIssues(issues, FilterOptions{RadiusKm: exact}, &home)
	assert.Contains(t, ids(got), "c")

	got = FilterIssues(issues, FilterOptions{RadiusKm: exact - 0.001}, &home)
	assert.NotContains(t, ids(got), "c")
}

func TestFilterIssuesRadiusExcludesFarIssues(t *testing.T) {
	got := FilterIssues(fixture(), FilterOptions{RadiusKm: 5}, &home)
	assert.Equal(t, []string{"a", "b", "e"}, ids(got))
}

func TestFilterIssuesRadiusNeedsLocation(t *testing.T) {
	issues := fixture()
	got := FilterIssues(issues, FilterOptions{RadiusKm: 1}, nil)
	assert.Equal(t, ids(issues), ids(got))
}

func TestFilterIssuesSearch(t *testing.T) {
	issues := fixture()
	issues[1].Title = "Broken STREETLIGHT near park"
	issues[3].Description = "no water since monday, streetlight also out"

	got := FilterIssues(issues, FilterOptions{Search: "streetlight"}, nil)
	assert.Equal(t, []string{"b", "d"}, ids(got))

	// the category label is searchable too
	got = FilterIssues(issues, FilterOptions{Search: "water sup"}, nil)
	assert.Equal(t, []string{"d"}, ids(got))

	got = FilterIssues(issues, FilterOptions{Search: ""}, nil)
	assert.Len(t, got, len(issues))
}

func TestFilterIssuesDoesNotMutateInput(t *testing.T) {
	issues := fixture()
	before := ids(issues)
	FilterIssues(issues, FilterOptions{Category: "Lighting"}, nil)
	assert.Equal(t, before, ids(issues))
}

func TestSortIssuesByDistance(t *testing.T) {
	issues := []models.Issue{
		fixture()[3],
		fixture()[2],
		fixture()[0],
		fixture()[1],
	}
	sorted := SortIssuesByDistance(issues, home)
	require.Len(t, sorted, 4)

	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Distance, sorted[i].Distance)
	}
	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, 0.0, sorted[0].Distance)
	assert.Equal(t, "0m", sorted[0].DistanceFormatted)

	// input untouched
	assert.Equal(t, "d", issues[0].ID)
}

func TestSortIssuesByDistanceIsStableAndIdempotent(t *testing.T) {
	issues := []models.Issue{
		mockIssue("x", models.Roads, models.Reported, 17.4, 78.5),
		mockIssue("y", models.Roads, models.Reported, 17.4, 78.5),
		mockIssue("near", models.Roads, models.Reported, 17.3851, 78.4867),
		mockIssue("z", models.Roads, models.Reported, 17.4, 78.5),
	}
	first := SortIssuesByDistance(issues, home)

	again := make([]models.Issue, len(first))
	for i, d := range first {
		again[i] = d.Issue
	}
	second := SortIssuesByDistance(again, home)

	order := func(in []models.DistancedIssue) []string {
		out := make([]string, len(in))
		for i, d := range in {
			out[i] = d.ID
		}
		return out
	}
	assert.Equal(t, []string{"near", "x", "y", "z"}, order(first))
	assert.Equal(t, order(first), order(second))
}
