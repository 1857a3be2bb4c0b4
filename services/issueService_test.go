package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"civictrack/geo"
	"civictrack/models"
	"civictrack/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// countingStore records how many store calls were made.
type countingStore struct {
	*store.MemoryStore
	mu    sync.Mutex
	calls int
}

func (s *countingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	s.count()
	return s.MemoryStore.InsertIssue(ctx, issue)
}

func (s *countingStore) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	s.count()
	return s.MemoryStore.FindProfile(ctx, userID)
}

// brokenLogStore fails every audit append.
type brokenLogStore struct {
	*store.MemoryStore
}

func (s brokenLogStore) InsertStatusLog(ctx context.Context, log *models.StatusLog) error {
	return errors.New("status_logs: connection reset")
}

// missingLogStore answers log lookups with a not-found signal.
type missingLogStore struct {
	*store.MemoryStore
}

func (s missingLogStore) ListStatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error) {
	return nil, store.ErrNotFound
}

func newIssueService(s store.Store, opts ...IssueServiceOption) *IssueService {
	opts = append([]IssueServiceOption{WithClock(fixedClock)}, opts...)
	return NewIssueService(s, s, s, zerolog.Nop(), opts...)
}

func strPtr(s string) *string { return &s }

func mockNewIssue() NewIssue {
	return NewIssue{
		Title:       "Pothole on Main Street",
		Description: "Deep pothole in the left lane near the bus stop",
		Category:    models.Roads,
		Images:      []string{"https://example.com/1.jpg"},
		Location:    &models.Location{Lat: 17.3850, Lng: 78.4867},
	}
}

func seedIssue(t *testing.T, svc *IssueService) models.Issue {
	t.Helper()
	issue, err := svc.Create(context.Background(), mockNewIssue(), nil)
	require.NoError(t, err)
	return issue
}

func TestCreateIssue(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()

	issue, err := svc.Create(ctx, mockNewIssue(), strPtr("user-1"))
	require.NoError(t, err)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.Reported, issue.Status)
	assert.False(t, issue.Flagged)
	assert.Equal(t, models.Verified, issue.ReporterType)
	require.NotNil(t, issue.UserID)
	assert.Equal(t, "user-1", *issue.UserID)
	assert.Equal(t, fixedNow, issue.CreatedAt)
	assert.Equal(t, fixedNow, issue.UpdatedAt)

	stored, err := s.FindIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue, stored)
}

func TestCreateIssueAnonymous(t *testing.T) {
	svc := newIssueService(store.NewMemoryStore())
	ctx := context.Background()

	noActor, err := svc.Create(ctx, mockNewIssue(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.Anonymous, noActor.ReporterType)
	assert.Nil(t, noActor.UserID)

	in := mockNewIssue()
	in.Anonymous = true
	asked, err := svc.Create(ctx, in, strPtr("user-1"))
	require.NoError(t, err)
	assert.Equal(t, models.Anonymous, asked.ReporterType)
	assert.Nil(t, asked.UserID)
}

func TestCreateIssueValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*NewIssue)
		field string
	}{
		{"missing title", func(in *NewIssue) { in.Title = "   " }, "title"},
		{"missing description", func(in *NewIssue) { in.Description = "" }, "description"},
		{"missing category", func(in *NewIssue) { in.Category = "" }, "category"},
		{"unknown category", func(in *NewIssue) { in.Category = "Parks" }, "category"},
		{"no location", func(in *NewIssue) { in.Location = nil }, "location"},
		{"location out of range", func(in *NewIssue) { in.Location = &models.Location{Lat: 91, Lng: 0} }, "location"},
		{"too many images", func(in *NewIssue) { in.Images = make([]string, 6) }, "images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &countingStore{MemoryStore: store.NewMemoryStore()}
			svc := newIssueService(s)

			in := mockNewIssue()
			tt.edit(&in)
			_, err := svc.Create(context.Background(), in, strPtr("user-1"))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, s.calls, "validation must happen before any store call")
		})
	}
}

func TestCreateIssueRejectsBannedReporter(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.InsertProfile(ctx, &models.Profile{UserID: "troll", Banned: true}))

	svc := newIssueService(s)
	_, err := svc.Create(ctx, mockNewIssue(), strPtr("troll"))
	assert.ErrorIs(t, err, ErrForbidden)

	issues, err := s.ListIssues(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestUpdateStatusWritesOneLog(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	result, err := svc.UpdateStatus(ctx, issue.ID, models.Resolved, strPtr("fixed pothole"), strPtr("admin-1"))
	require.NoError(t, err)
	assert.False(t, result.Partial())
	assert.Equal(t, models.Resolved, result.Issue.Status)

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.Reported, logs[0].OldStatus)
	assert.Equal(t, models.Resolved, logs[0].NewStatus)
	require.NotNil(t, logs[0].Note)
	assert.Equal(t, "fixed pothole", *logs[0].Note)
	require.NotNil(t, logs[0].UpdatedBy)
	assert.Equal(t, "admin-1", *logs[0].UpdatedBy)
	assert.Equal(t, fixedNow, logs[0].CreatedAt)

	require.NotNil(t, result.Log)
	assert.Equal(t, logs[0].ID, result.Log.ID)
}

func TestUpdateStatusOldStatusTracksPreviousWrite(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	_, err := svc.UpdateStatus(ctx, issue.ID, models.InProgress, nil, strPtr("admin-1"))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, issue.ID, models.Resolved, nil, strPtr("admin-1"))
	require.NoError(t, err)

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.InProgress, logs[0].OldStatus)
	assert.Equal(t, models.Resolved, logs[0].NewStatus)
	assert.Equal(t, models.Reported, logs[1].OldStatus)
	assert.Equal(t, models.InProgress, logs[1].NewStatus)
	assert.Nil(t, logs[1].Note)
}

func TestUpdateStatusWithoutActor(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	result, err := svc.UpdateStatus(ctx, issue.ID, models.InProgress, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, result.Issue.Status)

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].UpdatedBy)
}

func TestUpdateStatusAllowsAnyTransitionByDefault(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	for _, to := range []models.IssueStatus{models.Resolved, models.Reported, models.Reported, models.InProgress} {
		result, err := svc.UpdateStatus(ctx, issue.ID, to, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, to, result.Issue.Status)
	}

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}

func TestUpdateStatusForwardOnlyPolicy(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s, WithTransitionPolicy(ForwardOnly))
	ctx := context.Background()
	issue := seedIssue(t, svc)

	_, err := svc.UpdateStatus(ctx, issue.ID, models.Resolved, nil, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, issue.ID, models.Reported, nil, nil)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.Resolved, terr.From)
	assert.Equal(t, models.Reported, terr.To)

	current, err := s.FindIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, current.Status)

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUpdateStatusNotFound(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)

	_, err := svc.UpdateStatus(context.Background(), "missing", models.Resolved, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	logs, err := s.RecentStatusLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newIssueService(store.NewMemoryStore())
	issue := seedIssue(t, svc)

	_, err := svc.UpdateStatus(context.Background(), issue.ID, "Closed", nil, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
}

func TestUpdateStatusLogFailureKeepsStatusChange(t *testing.T) {
	mem := store.NewMemoryStore()
	s := brokenLogStore{MemoryStore: mem}
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	result, err := svc.UpdateStatus(ctx, issue.ID, models.Resolved, strPtr("done"), strPtr("admin-1"))
	require.NoError(t, err)
	assert.True(t, result.Partial())
	assert.Nil(t, result.Log)

	var serr *StoreError
	require.ErrorAs(t, result.LogErr, &serr)
	assert.Equal(t, "append status log", serr.Op)

	current, err := mem.FindIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Resolved, current.Status)
}

func TestUpdateStatusConcurrentLastWriteWins(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	targets := []models.IssueStatus{models.InProgress, models.Resolved}
	var wg sync.WaitGroup
	for _, to := range targets {
		wg.Add(1)
		go func(to models.IssueStatus) {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, issue.ID, to, nil, nil)
			assert.NoError(t, err)
		}(to)
	}
	wg.Wait()

	current, err := s.FindIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Contains(t, targets, current.Status)

	logs, err := s.ListStatusLogs(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Contains(t, []models.IssueStatus{models.Reported, models.InProgress, models.Resolved}, l.OldStatus)
	}
}

func TestFlagIsIdempotentAndUnlogged(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()
	issue := seedIssue(t, svc)

	first, err := svc.Flag(ctx, issue.ID)
	require.NoError(t, err)
	assert.True(t, first.Flagged)

	second, err := svc.Flag(ctx, issue.ID)
	require.NoError(t, err)
	assert.True(t, second.Flagged)
	assert.Equal(t, models.Reported, second.Status)

	logs, err := s.RecentStatusLogs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = svc.Flag(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusLogsSwallowsNotFound(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newIssueService(missingLogStore{MemoryStore: mem})
	issue := seedIssue(t, svc)

	logs, err := svc.StatusLogs(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)

	detail, err := svc.Detail(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, detail.Issue.ID)
	assert.Empty(t, detail.Logs)
}

func TestDetailNotFound(t *testing.T) {
	svc := newIssueService(store.NewMemoryStore())
	_, err := svc.Detail(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersAndSortsByDistance(t *testing.T) {
	s := store.NewMemoryStore()
	svc := newIssueService(s)
	ctx := context.Background()

	far := mockNewIssue()
	far.Title = "far"
	far.Location = &models.Location{Lat: 17.4500, Lng: 78.5500}
	near := mockNewIssue()
	near.Title = "near"
	near.Location = &models.Location{Lat: 17.3855, Lng: 78.4870}
	light := mockNewIssue()
	light.Title = "light"
	light.Category = models.Lighting
	light.Location = &models.Location{Lat: 17.3860, Lng: 78.4870}

	for _, in := range []NewIssue{far, near, light} {
		_, err := svc.Create(ctx, in, nil)
		require.NoError(t, err)
	}

	here := models.Location{Lat: 17.3850, Lng: 78.4867}
	got, err := svc.List(ctx, geo.FilterOptions{Category: "Roads"}, here)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Title)
	assert.Equal(t, "far", got[1].Title)
	assert.Less(t, got[0].Distance, got[1].Distance)
	assert.NotEmpty(t, got[0].DistanceFormatted)

	got, err = svc.List(ctx, geo.FilterOptions{RadiusKm: 1}, here)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Title)
	assert.Equal(t, "light", got[1].Title)
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"", "any"} {
		p, err := PolicyByName(name)
		require.NoError(t, err)
		assert.NoError(t, p(models.Resolved, models.Reported))
		assert.NoError(t, p(models.Reported, models.Reported))
	}

	p, err := PolicyByName("forward")
	require.NoError(t, err)
	assert.Error(t, p(models.Resolved, models.Reported))
	assert.NoError(t, p(models.Reported, models.InProgress))
	assert.NoError(t, p(models.InProgress, models.InProgress))

	p, err = PolicyByName("strict")
	require.NoError(t, err)
	assert.Error(t, p(models.InProgress, models.InProgress))
	assert.NoError(t, p(models.Reported, models.Resolved))

	_, err = PolicyByName("sideways")
	assert.Error(t, err)
}
