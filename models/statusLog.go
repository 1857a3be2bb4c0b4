package models

import "time"

// StatusLog is one immutable entry in an issue's status audit trail.
type StatusLog struct {
	ID        string      `bson:"_id" json:"id"`
	IssueID   string      `bson:"issue_id" json:"issue_id"`
	OldStatus IssueStatus `bson:"old_status" json:"old_status"`
	NewStatus IssueStatus `bson:"new_status" json:"new_status"`
	Note      *string     `bson:"note,omitempty" json:"note"`
	UpdatedBy *string     `bson:"updated_by,omitempty" json:"updated_by"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// RecentActivityLimit is how many status logs the analytics feed returns.
const RecentActivityLimit = 10

// CategoryCount is one bar of the category histogram.
type CategoryCount struct {
	Category IssueCategory `json:"category"`
	Count    int           `json:"count"`
}

// Analytics is derived on each request and never persisted.
type Analytics struct {
	TotalReports    int             `json:"totalReports"`
	ResolvedReports int             `json:"resolvedReports"`
	PendingReports  int             `json:"pendingReports"`
	FlaggedReports  int             `json:"flaggedReports"`
	TopCategories   []CategoryCount `json:"topCategories"`
	RecentActivity  []StatusLog     `json:"recentActivity"`
}
