package store

import (
	"context"
	"errors"
	"time"

	"civictrack/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type issueRow struct {
	ID           string                      `gorm:"primaryKey;size:36"`
	Title        string                      `gorm:"not null"`
	Description  string                      `gorm:"not null"`
	Category     string                      `gorm:"size:32;not null;index"`
	Status       string                      `gorm:"size:32;not null;default:'Reported';index"`
	Images       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	LocationLat  float64                     `gorm:"not null"`
	LocationLng  float64                     `gorm:"not null"`
	ReporterType string                      `gorm:"size:16;not null"`
	UserID       *string                     `gorm:"size:64;index"`
	Flagged      bool                        `gorm:"not null;default:false"`
	CreatedAt    time.Time                   `gorm:"index"`
	UpdatedAt    time.Time
}

func (issueRow) TableName() string { return "issues" }

func issueToRow(issue models.Issue) issueRow {
	return issueRow{
		ID:           issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		Category:     string(issue.Category),
		Status:       string(issue.Status),
		Images:       datatypes.NewJSONSlice(issue.Images),
		LocationLat:  issue.LocationLat,
		LocationLng:  issue.LocationLng,
		ReporterType: string(issue.ReporterType),
		UserID:       issue.UserID,
		Flagged:      issue.Flagged,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
	}
}

func (r issueRow) toModel() models.Issue {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return models.Issue{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     models.IssueCategory(r.Category),
		Status:       models.IssueStatus(r.Status),
		Images:       images,
		LocationLat:  r.LocationLat,
		LocationLng:  r.LocationLng,
		ReporterType: models.ReporterType(r.ReporterType),
		UserID:       r.UserID,
		Flagged:      r.Flagged,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type statusLogRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	IssueID   string    `gorm:"size:36;not null;index"`
	OldStatus string    `gorm:"size:32;not null"`
	NewStatus string    `gorm:"size:32;not null"`
	Note      *string   `gorm:"size:1000"`
	UpdatedBy *string   `gorm:"size:64"`
	CreatedAt time.Time `gorm:"index"`
}

func (statusLogRow) TableName() string { return "status_logs" }

func (r statusLogRow) toModel() models.StatusLog {
	return models.StatusLog{
		ID:        r.ID,
		IssueID:   r.IssueID,
		OldStatus: models.IssueStatus(r.OldStatus),
		NewStatus: models.IssueStatus(r.NewStatus),
		Note:      r.Note,
		UpdatedBy: r.UpdatedBy,
		CreatedAt: r.CreatedAt,
	}
}

type profileRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex"`
	Name        *string   `gorm:"size:255"`
	Email       *string   `gorm:"size:255"`
	IsAdmin     bool      `gorm:"not null;default:false"`
	Banned      bool      `gorm:"not null;default:false"`
	LocationLat *float64  `gorm:"type:double precision"`
	LocationLng *float64  `gorm:"type:double precision"`
	CreatedAt   time.Time `gorm:"index"`
}

func (profileRow) TableName() string { return "profiles" }

func (r profileRow) toModel() models.Profile {
	return models.Profile{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Email:       r.Email,
		IsAdmin:     r.IsAdmin,
		Banned:      r.Banned,
		LocationLat: r.LocationLat,
		LocationLng: r.LocationLng,
		CreatedAt:   r.CreatedAt,
	}
}

// PostgresStore is the relational backend, one table per record type.
type PostgresStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPostgresStore(db *gorm.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

// Migrate creates or updates the three tables.
func (s *PostgresStore) Migrate() error {
	return s.db.AutoMigrate(&issueRow{}, &statusLogRow{}, &profileRow{})
}

func gormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	row := issueToRow(*issue)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) FindIssue(ctx context.Context, id string) (models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var row issueRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.Issue{}, gormErr(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var rows []issueRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	issues := make([]models.Issue, len(rows))
	for i, r := range rows {
		issues[i] = r.toModel()
	}
	return issues, nil
}

func (s *PostgresStore) CountIssues(ctx context.Context, filter IssueFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.WithContext(ctx).Model(&issueRow{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Flagged != nil {
		query = query.Where("flagged = ?", *filter.Flagged)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func (s *PostgresStore) updateIssue(ctx context.Context, id string, updates map[string]interface{}) (models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	result := db.Model(&issueRow{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Issue{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Issue{}, ErrNotFound
	}

	var row issueRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return models.Issue{}, gormErr(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) UpdateIssueStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) (models.Issue, error) {
	return s.updateIssue(ctx, id, map[string]interface{}{
		"status":     string(status),
		"updated_at": at,
	})
}

func (s *PostgresStore) FlagIssue(ctx context.Context, id string, at time.Time) (models.Issue, error) {
	return s.updateIssue(ctx, id, map[string]interface{}{
		"flagged":    true,
		"updated_at": at,
	})
}

func (s *PostgresStore) InsertStatusLog(ctx context.Context, log *models.StatusLog) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	row := statusLogRow{
		ID:        log.ID,
		IssueID:   log.IssueID,
		OldStatus: string(log.OldStatus),
		NewStatus: string(log.NewStatus),
		Note:      log.Note,
		UpdatedBy: log.UpdatedBy,
		CreatedAt: log.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) findLogs(ctx context.Context, issueID string, limit int) ([]models.StatusLog, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if issueID != "" {
		query = query.Where("issue_id = ?", issueID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []statusLogRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]models.StatusLog, len(rows))
	for i, r := range rows {
		logs[i] = r.toModel()
	}
	return logs, nil
}

func (s *PostgresStore) ListStatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error) {
	return s.findLogs(ctx, issueID, 0)
}

func (s *PostgresStore) RecentStatusLogs(ctx context.Context, limit int) ([]models.StatusLog, error) {
	return s.findLogs(ctx, "", limit)
}

func (s *PostgresStore) InsertProfile(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	row := profileRow{
		ID:          profile.ID,
		UserID:      profile.UserID,
		Name:        profile.Name,
		Email:       profile.Email,
		IsAdmin:     profile.IsAdmin,
		Banned:      profile.Banned,
		LocationLat: profile.LocationLat,
		LocationLng: profile.LocationLng,
		CreatedAt:   profile.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var row profileRow
	if err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return models.Profile{}, gormErr(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var rows []profileRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	profiles := make([]models.Profile, len(rows))
	for i, r := range rows {
		profiles[i] = r.toModel()
	}
	return profiles, nil
}

func (s *PostgresStore) BanProfile(ctx context.Context, userID string) (models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	result := db.Model(&profileRow{}).Where("user_id = ?", userID).Update("banned", true)
	if result.Error != nil {
		return models.Profile{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Profile{}, ErrNotFound
	}

	var row profileRow
	if err := db.First(&row, "user_id = ?", userID).Error; err != nil {
		return models.Profile{}, gormErr(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
