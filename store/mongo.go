package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civictrack/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	issueCollectionName     = "issues"
	statusLogCollectionName = "status_logs"
	profileCollectionName   = "profiles"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// MongoStore keeps each record type in its own collection with string _id values.
type MongoStore struct {
	db       *mongo.Database
	issues   *mongo.Collection
	logs     *mongo.Collection
	profiles *mongo.Collection
	timeout  time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{
		db:       db,
		issues:   db.Collection(issueCollectionName),
		logs:     db.Collection(statusLogCollectionName),
		profiles: db.Collection(profileCollectionName),
		timeout:  timeout,
	}
}

// EnsureIndexes creates the indexes the list queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.issues.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: newestFirst}); err != nil {
		return fmt.Errorf("issues index: %w", err)
	}
	if _, err := s.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "issue_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: newestFirst},
	}); err != nil {
		return fmt.Errorf("status_logs index: %w", err)
	}
	if _, err := s.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("profiles index: %w", err)
	}
	return nil
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func (s *MongoStore) InsertIssue(ctx context.Context, issue *models.Issue) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if issue.ID == "" {
		issue.ID = newID()
	}
	_, err := s.issues.InsertOne(ctx, issue)
	return err
}

func (s *MongoStore) FindIssue(ctx context.Context, id string) (models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var issue models.Issue
	err := s.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	return issue, mongoErr(err)
}

func (s *MongoStore) ListIssues(ctx context.Context) ([]models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.issues.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *MongoStore) CountIssues(ctx context.Context, filter IssueFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.Flagged != nil {
		query["flagged"] = *filter.Flagged
	}
	return s.issues.CountDocuments(ctx, query)
}

func (s *MongoStore) updateIssue(ctx context.Context, id string, set bson.M) (models.Issue, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var issue models.Issue
	err := s.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	return issue, mongoErr(err)
}

func (s *MongoStore) UpdateIssueStatus(ctx context.Context, id string, status models.IssueStatus, at time.Time) (models.Issue, error) {
	return s.updateIssue(ctx, id, bson.M{"status": status, "updated_at": at})
}

func (s *MongoStore) FlagIssue(ctx context.Context, id string, at time.Time) (models.Issue, error) {
	return s.updateIssue(ctx, id, bson.M{"flagged": true, "updated_at": at})
}

func (s *MongoStore) InsertStatusLog(ctx context.Context, log *models.StatusLog) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if log.ID == "" {
		log.ID = newID()
	}
	_, err := s.logs.InsertOne(ctx, log)
	return err
}

func (s *MongoStore) findLogs(ctx context.Context, filter bson.M, limit int) ([]models.StatusLog, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.logs.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.StatusLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *MongoStore) ListStatusLogs(ctx context.Context, issueID string) ([]models.StatusLog, error) {
	return s.findLogs(ctx, bson.M{"issue_id": issueID}, 0)
}

func (s *MongoStore) RecentStatusLogs(ctx context.Context, limit int) ([]models.StatusLog, error) {
	return s.findLogs(ctx, bson.M{}, limit)
}

func (s *MongoStore) InsertProfile(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if profile.ID == "" {
		profile.ID = newID()
	}
	_, err := s.profiles.InsertOne(ctx, profile)
	return err
}

func (s *MongoStore) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var profile models.Profile
	err := s.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	return profile, mongoErr(err)
}

func (s *MongoStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.profiles.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *MongoStore) BanProfile(ctx context.Context, userID string) (models.Profile, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var profile models.Profile
	err := s.profiles.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"banned": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	return profile, mongoErr(err)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}
