package services

import (
	"context"
	"sort"

	"civictrack/models"
	"civictrack/store"
)

type AnalyticsService struct {
	issues store.IssueStore
	logs   store.StatusLogStore
}

func NewAnalyticsService(issues store.IssueStore, logs store.StatusLogStore) *AnalyticsService {
	return &AnalyticsService{issues: issues, logs: logs}
}

// Compute loads every issue, the newest status logs and the flagged count
// and aggregates them. Nothing is cached; each call reads the store again.
func (s *AnalyticsService) Compute(ctx context.Context) (models.Analytics, error) {
	issues, err := s.issues.ListIssues(ctx)
	if err != nil {
		return models.Analytics{}, storeErr("list issues", err)
	}
	logs, err := s.logs.RecentStatusLogs(ctx, models.RecentActivityLimit)
	if err != nil {
		return models.Analytics{}, storeErr("recent status logs", err)
	}
	flagged := true
	flaggedCount, err := s.issues.CountIssues(ctx, store.IssueFilter{Flagged: &flagged})
	if err != nil {
		return models.Analytics{}, storeErr("count flagged issues", err)
	}

	a := ComputeAnalytics(issues, logs)
	a.FlaggedReports = int(flaggedCount)
	return a, nil
}

// ComputeAnalytics aggregates issues and status logs. Pending counts every
// issue that is not Resolved, so Reported and In Progress are merged.
// TopCategories is ordered by count, ties keep first-seen order.
// RecentActivity holds at most RecentActivityLimit logs, newest first.
func ComputeAnalytics(issues []models.Issue, logs []models.StatusLog) models.Analytics {
	a := models.Analytics{
		TotalReports:   len(issues),
		TopCategories:  []models.CategoryCount{},
		RecentActivity: []models.StatusLog{},
	}

	index := make(map[models.IssueCategory]int)
	for _, issue := range issues {
		if issue.Status == models.Resolved {
			a.ResolvedReports++
		}
		i, seen := index[issue.Category]
		if !seen {
			i = len(a.TopCategories)
			index[issue.Category] = i
			a.TopCategories = append(a.TopCategories, models.CategoryCount{Category: issue.Category})
		}
		a.TopCategories[i].Count++
	}
	a.PendingReports = a.TotalReports - a.ResolvedReports

	sort.SliceStable(a.TopCategories, func(i, j int) bool {
		return a.TopCategories[i].Count > a.TopCategories[j].Count
	})

	recent := append([]models.StatusLog(nil), logs...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > models.RecentActivityLimit {
		recent = recent[:models.RecentActivityLimit]
	}
	a.RecentActivity = append(a.RecentActivity, recent...)
	return a
}
