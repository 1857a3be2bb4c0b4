package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civictrack/models"

	"github.com/google/uuid"
)

type memIssue struct {
	issue models.Issue
	seq   int
}

type memLog struct {
	log models.StatusLog
	seq int
}

type memProfile struct {
	profile models.Profile
	seq     int
}

// MemoryStore keeps everything in process. It backs local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int
	issues   map[string]*memIssue
	logs     []memLog
	profiles map[string]*memProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issues:   make(map[string]*memIssue),
		profiles: make(map[string]*memProfile),
	}
}

func (s *MemoryStore) next() int {
	s.seq++
	return s.seq
}

func cloneIssue(issue models.Issue) models.Issue {
	if issue.Images != nil {
		issue.Images = append([]string(nil), issue.Images...)
	}
	return issue
}

// newer orders by creation time, then by insertion order, newest first.
func newer(aAt time.Time, aSeq int, bAt time.Time, bSeq int) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aSeq > bSeq
}

func (s *MemoryStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	s.issues[issue.ID] = &memIssue{issue: cloneIssue(*issue), seq: s.next()}
	return nil
}

func (s *MemoryStore) FindIssue(ctx context.Context, id string) (models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.issues[id]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	return cloneIssue(m.issue), nil
}

func (s *MemoryStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*memIssue, 0, len(s.issues))
	for _, m := range s.issues {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		return newer(all[i].issue.CreatedAt, all[i].seq, all[j].issue.CreatedAt, all[j].seq)
	})

	issues := make([]models.Issue, len(all))
	for i, m := range all {
		issues[i] = cloneIssue(m.issue)
	}
	return issues, nil
}

func (s *MemoryStore) CountIssues(ctx context.Context, filter IssueFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.issues {
		if filter.matches(m.issue) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateIssueStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.issues[id]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	m.issue.Status = status
	m.issue.UpdatedAt = at
	return cloneIssue(m.issue), nil
}

func (s *MemoryStore) FlagIssue(ctx context.Context, id string, at time.Time) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.issues[id]
	if !ok {
		return models.Issue{}, ErrNotFound
	}
	m.issue.Flagged = true
	m.issue.UpdatedAt = at
	return cloneIssue(m.issue), nil
}

func (s *MemoryStore) InsertStatusLog(ctx context.Context, log *models.StatusLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	s.logs = append(s.logs, memLog{log: *log, seq: s.next()})
	return nil
}

func (s *MemoryStore) findLogs(issueID string, limit int) []models.StatusLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]memLog, 0, len(s.logs))
	for _, m := range s.logs {
		if issueID == "" || m.log.IssueID == issueID {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].log.CreatedAt, matched[i].seq, matched[j].log.CreatedAt, matched[j].seq)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	logs := make([]models.StatusLog, len(matched))
	for i, m := range matched {
		logs[i] = m.log
	}
	return logs
}

func (s *MemoryStore) ListStatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error) {
	return s.findLogs(issueID, 0), nil
}

func (s *MemoryStore) RecentStatusLogs(ctx context.Context, limit int) ([]models.StatusLog, error) {
	return s.findLogs("", limit), nil
}

func (s *MemoryStore) InsertProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	s.profiles[profile.UserID] = &memProfile{profile: *profile, seq: s.next()}
	return nil
}

func (s *MemoryStore) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return m.profile, nil
}

func (s *MemoryStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*memProfile, 0, len(s.profiles))
	for _, m := range s.profiles {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		return newer(all[i].profile.CreatedAt, all[i].seq, all[j].profile.CreatedAt, all[j].seq)
	})

	profiles := make([]models.Profile, len(all))
	for i, m := range all {
		profiles[i] = m.profile
	}
	return profiles, nil
}

func (s *MemoryStore) BanProfile(ctx context.Context, userID string) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	m.profile.Banned = true
	return m.profile, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
