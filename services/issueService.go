package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"civictrack/geo"
	"civictrack/models"
	"civictrack/store"

	"github.com/rs/zerolog"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxNoteLength        = 1000
)

// NewIssue is the input for reporting an issue.
type NewIssue struct {
	Title       string
	Description string
	Category    models.IssueCategory
	Images      []string
	Location    *models.Location
	Anonymous   bool
}

// StatusUpdateResult carries the outcome of UpdateStatus. The status write
// always succeeded when a result is returned; LogErr is set when the audit
// entry could not be written afterwards.
type StatusUpdateResult struct {
	Issue  models.Issue
	Log    *models.StatusLog
	LogErr error
}

// Partial reports whether the status changed but the audit entry is missing.
func (r StatusUpdateResult) Partial() bool {
	return r.LogErr != nil
}

// IssueDetail is an issue with its audit trail, newest entry first.
type IssueDetail struct {
	Issue models.Issue       `json:"issue"`
	Logs  []models.StatusLog `json:"logs"`
}

type IssueService struct {
	issues   store.IssueStore
	logs     store.StatusLogStore
	profiles store.ProfileStore
	policy   TransitionPolicy
	now      func() time.Time
	logger   zerolog.Logger
}

type IssueServiceOption func(*IssueService)

// WithTransitionPolicy replaces the default AnyTransition policy.
func WithTransitionPolicy(p TransitionPolicy) IssueServiceOption {
	return func(s *IssueService) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) IssueServiceOption {
	return func(s *IssueService) {
		s.now = now
	}
}

func NewIssueService(issues store.IssueStore, logs store.StatusLogStore, profiles store.ProfileStore, logger zerolog.Logger, opts ...IssueServiceOption) *IssueService {
	s := &IssueService{
		issues:   issues,
		logs:     logs,
		profiles: profiles,
		policy:   AnyTransition,
		now:      time.Now,
		logger:   logger.With().Str("component", "issues").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateNewIssue(in *NewIssue) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Title == "":
		return invalid("title", "is required")
	case len(in.Title) > maxTitleLength:
		return invalid("title", "is too long")
	case in.Description == "":
		return invalid("description", "is required")
	case len(in.Description) > maxDescriptionLength:
		return invalid("description", "is too long")
	case in.Category == "":
		return invalid("category", "is required")
	case !in.Category.Valid():
		return invalid("category", "is not a known category")
	case in.Location == nil:
		return invalid("location", "is required")
	case !in.Location.Valid():
		return invalid("location", "coordinates are out of range")
	case len(in.Images) > models.MaxIssueImages:
		return invalid("images", "at most 5 images are allowed")
	}
	return nil
}

// Create validates and stores a new report. Every issue starts as Reported
// and unflagged. Reports without an actor, or that ask for anonymity, are
// stored as Anonymous with no owning user.
func (s *IssueService) Create(ctx context.Context, in NewIssue, actor *string) (models.Issue, error) {
	if err := validateNewIssue(&in); err != nil {
		return models.Issue{}, err
	}

	if actor != nil {
		profile, err := s.profiles.FindProfile(ctx, *actor)
		switch {
		case err == nil && profile.Banned:
			return models.Issue{}, ErrForbidden
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return models.Issue{}, storeErr("load reporter profile", err)
		}
	}

	reporter := models.Verified
	var userID *string
	if actor == nil || in.Anonymous {
		reporter = models.Anonymous
	} else {
		id := *actor
		userID = &id
	}

	images := make([]string, len(in.Images))
	copy(images, in.Images)

	now := s.now().UTC()
	issue := models.Issue{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Status:       models.Reported,
		Images:       images,
		LocationLat:  in.Location.Lat,
		LocationLng:  in.Location.Lng,
		ReporterType: reporter,
		UserID:       userID,
		Flagged:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.issues.InsertIssue(ctx, &issue); err != nil {
		return models.Issue{}, storeErr("create issue", err)
	}

	issuesReportedTotal.WithLabelValues(string(issue.Category), string(issue.ReporterType)).Inc()
	s.logger.Info().
		Str("issue_id", issue.ID).
		Str("category", string(issue.Category)).
		Str("reporter_type", string(issue.ReporterType)).
		Msg("issue reported")
	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id string) (models.Issue, error) {
	issue, err := s.issues.FindIssue(ctx, id)
	if err != nil {
		return models.Issue{}, storeErr("get issue", err)
	}
	return issue, nil
}

// List returns the issues matching filter, nearest to location first.
func (s *IssueService) List(ctx context.Context, filter geo.FilterOptions, location models.Location) ([]models.DistancedIssue, error) {
	issues, err := s.issues.ListIssues(ctx)
	if err != nil {
		return nil, storeErr("list issues", err)
	}
	filtered := geo.FilterIssues(issues, filter, &location)
	return geo.SortIssuesByDistance(filtered, location), nil
}

// StatusLogs returns an issue's audit trail, newest first. A not-found
// answer from the log lookup yields an empty trail.
func (s *IssueService) StatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error) {
	logs, err := s.logs.ListStatusLogs(ctx, issueID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug().Str("issue_id", issueID).Msg("no status logs found")
		return []models.StatusLog{}, nil
	}
	if err != nil {
		return nil, storeErr("list status logs", err)
	}
	return logs, nil
}

func (s *IssueService) Detail(ctx context.Context, id string) (IssueDetail, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return IssueDetail{}, err
	}
	logs, err := s.StatusLogs(ctx, id)
	if err != nil {
		return IssueDetail{}, err
	}
	return IssueDetail{Issue: issue, Logs: logs}, nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > maxNoteLength {
		return nil, invalid("note", "is too long")
	}
	return &trimmed, nil
}

// UpdateStatus moves an issue to newStatus and appends one audit entry
// recording the previous status. actor may be nil when the caller is not
// authenticated; the status still changes and the entry has no actor.
//
// The status write and the audit append are separate store calls. If the
// append fails the status change stands and the failure is returned in
// StatusUpdateResult.LogErr. Concurrent updates to one issue are not
// serialized: the last write wins and each caller's entry records the status
// it read.
func (s *IssueService) UpdateStatus(ctx context.Context, id string, newStatus models.IssueStatus, note *string, actor *string) (StatusUpdateResult, error) {
	if !newStatus.Valid() {
		return StatusUpdateResult{}, invalid("status", "is not a known status")
	}
	note, err := normalizeNote(note)
	if err != nil {
		return StatusUpdateResult{}, err
	}

	current, err := s.issues.FindIssue(ctx, id)
	if err != nil {
		return StatusUpdateResult{}, storeErr("load issue", err)
	}
	if err := s.policy(current.Status, newStatus); err != nil {
		return StatusUpdateResult{}, err
	}

	now := s.now().UTC()
	updated, err := s.issues.UpdateIssueStatus(ctx, id, newStatus, now)
	if err != nil {
		return StatusUpdateResult{}, storeErr("update issue status", err)
	}
	statusTransitionsTotal.WithLabelValues(string(current.Status), string(newStatus)).Inc()

	entry := models.StatusLog{
		IssueID:   id,
		OldStatus: current.Status,
		NewStatus: newStatus,
		Note:      note,
		UpdatedBy: actor,
		CreatedAt: now,
	}
	if actor == nil {
		s.logger.Info().Str("issue_id", id).Msg("status changed without an authenticated actor")
	}

	result := StatusUpdateResult{Issue: updated}
	if err := s.logs.InsertStatusLog(ctx, &entry); err != nil {
		auditLogFailuresTotal.Inc()
		result.LogErr = &StoreError{Op: "append status log", Err: err}
		s.logger.Error().Err(err).
			Str("issue_id", id).
			Str("old_status", string(current.Status)).
			Str("new_status", string(newStatus)).
			Msg("status changed but audit log entry was not written")
		return result, nil
	}
	result.Log = &entry

	s.logger.Info().
		Str("issue_id", id).
		Str("old_status", string(current.Status)).
		Str("new_status", string(newStatus)).
		Msg("issue status updated")
	return result, nil
}

// Flag marks an issue for review. Flagging is idempotent, is never undone
// and writes no audit entry.
func (s *IssueService) Flag(ctx context.Context, id string) (models.Issue, error) {
	issue, err := s.issues.FlagIssue(ctx, id, s.now().UTC())
	if err != nil {
		return models.Issue{}, storeErr("flag issue", err)
	}
	s.logger.Info().Str("issue_id", id).Msg("issue flagged")
	return issue, nil
}
