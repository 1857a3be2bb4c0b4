package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesAreValid(t *testing.T) {
	require.Len(t, Categories(), 6)
	for _, c := range Categories() {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, IssueCategory("Parks").Valid())
	assert.False(t, IssueCategory("roads").Valid())
	assert.False(t, IssueCategory("").Valid())
}

func TestStatusRank(t *testing.T) {
	statuses := Statuses()
	require.Equal(t, []IssueStatus{Reported, InProgress, Resolved}, statuses)
	for i, s := range statuses {
		assert.True(t, s.Valid())
		assert.Equal(t, i, s.Rank())
	}
	assert.False(t, IssueStatus("Pending").Valid())
	assert.Equal(t, -1, IssueStatus("Pending").Rank())
}

func TestReporterTypeValid(t *testing.T) {
	assert.True(t, Anonymous.Valid())
	assert.True(t, Verified.Valid())
	assert.False(t, ReporterType("Guest").Valid())
}

func TestLocationValid(t *testing.T) {
	assert.True(t, Location{Lat: 90, Lng: 180}.Valid())
	assert.True(t, Location{Lat: -90, Lng: -180}.Valid())
	assert.False(t, Location{Lat: 90.1, Lng: 0}.Valid())
	assert.False(t, Location{Lat: 0, Lng: -180.5}.Valid())
}

func TestProfileHomeLocation(t *testing.T) {
	lat, lng := 17.44, 78.35

	_, ok := Profile{}.HomeLocation()
	assert.False(t, ok)

	_, ok = Profile{LocationLat: &lat}.HomeLocation()
	assert.False(t, ok)

	loc, ok := Profile{LocationLat: &lat, LocationLng: &lng}.HomeLocation()
	require.True(t, ok)
	assert.Equal(t, Location{Lat: lat, Lng: lng}, loc)
}

func TestLegacyUserPassword(t *testing.T) {
	u := LegacyUser{Password: "hunter22"}
	require.NoError(t, u.HashPassword())
	assert.NotEqual(t, "hunter22", u.Password)
	assert.True(t, u.ComparePassword("hunter22"))
	assert.False(t, u.ComparePassword("hunter23"))
}

func TestNewGeoPointOrdersLngLat(t *testing.T) {
	p := NewGeoPoint(17.3850, 78.4867)
	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{78.4867, 17.3850}, p.Coordinates)
}
