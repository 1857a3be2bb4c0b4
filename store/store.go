// Package store persists issues, status logs and profiles. Every backend
// returns ErrNotFound when a lookup or update targets a missing record.
package store

import (
	"context"
	"errors"
	"time"

	"civictrack/models"
)

var ErrNotFound = errors.New("record not found")

// DefaultTimeout bounds a single store round trip.
const DefaultTimeout = 10 * time.Second

// IssueFilter narrows CountIssues. Nil fields match every issue.
type IssueFilter struct {
	Status  *models.IssueStatus
	Flagged *bool
}

func (f IssueFilter) matches(issue models.Issue) bool {
	if f.Status != nil && issue.Status != *f.Status {
		return false
	}
	if f.Flagged != nil && issue.Flagged != *f.Flagged {
		return false
	}
	return true
}

type IssueStore interface {
	// InsertIssue assigns issue.ID when it is empty.
	InsertIssue(ctx context.Context, issue *models.Issue) error
	FindIssue(ctx context.Context, id string) (models.Issue, error)
	// ListIssues returns every issue, newest first.
	ListIssues(ctx context.Context) ([]models.Issue, error)
	CountIssues(ctx context.Context, filter IssueFilter) (int64, error)
	UpdateIssueStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) (models.Issue, error)
	FlagIssue(ctx context.Context, id string, at time.Time) (models.Issue, error)
}

type StatusLogStore interface {
	// InsertStatusLog assigns log.ID when it is empty. Logs are never updated.
	InsertStatusLog(ctx context.Context, log *models.StatusLog) error
	// ListStatusLogs returns the logs of one issue, newest first.
	ListStatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error)
	// RecentStatusLogs returns up to limit logs across all issues, newest first.
	RecentStatusLogs(ctx context.Context, limit int) ([]models.StatusLog, error)
}

type ProfileStore interface {
	InsertProfile(ctx context.Context, profile *models.Profile) error
	// FindProfile looks a profile up by its account reference.
	FindProfile(ctx context.Context, userID string) (models.Profile, error)
	// ListProfiles returns every profile, newest first.
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	BanProfile(ctx context.Context, userID string) (models.Profile, error)
}

type Store interface {
	IssueStore
	StatusLogStore
	ProfileStore
	Close(ctx context.Context) error
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
