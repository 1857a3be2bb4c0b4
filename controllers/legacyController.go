package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"civictrack/middlewares"
	"civictrack/models"
	"civictrack/services"
	authUtils "civictrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LegacyUsersCollection  = "users"
	LegacyIssuesCollection = "legacy_issues"

	legacyTokenTTL = time.Hour
)

// LegacyController serves the deprecated REST surface. It talks to MongoDB
// directly and writes no audit entries.
type LegacyController struct {
	users     *mongo.Collection
	issues    *mongo.Collection
	profiles  *services.UserService
	jwtSecret string
	secure    bool
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewLegacyController(db *mongo.Database, profiles *services.UserService, jwtSecret string, secure bool, timeout time.Duration, logger zerolog.Logger) *LegacyController {
	return &LegacyController{
		users:     db.Collection(LegacyUsersCollection),
		issues:    db.Collection(LegacyIssuesCollection),
		profiles:  profiles,
		jwtSecret: jwtSecret,
		secure:    secure,
		timeout:   timeout,
		logger:    logger.With().Str("component", "legacy").Logger(),
	}
}

// EnsureIndexes creates the unique email index and the 2dsphere index.
func (lc *LegacyController) EnsureIndexes(ctx context.Context) error {
	if err := models.EnsureLegacyUserIndex(ctx, lc.users); err != nil {
		return err
	}
	return models.EnsureLegacyIssueIndex(ctx, lc.issues)
}

func (lc *LegacyController) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), lc.timeout)
}

func (lc *LegacyController) internalError(c *gin.Context, msg string, err error) {
	lc.logger.Error().Err(err).Msg(msg)
	reportError(c, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

// RegisterUser handles user registration
func (lc *LegacyController) RegisterUser(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	ctx, cancel := lc.ctx(c)
	defer cancel()

	count, err := lc.users.CountDocuments(ctx, bson.M{"email": input.Email})
	if err != nil {
		lc.internalError(c, "error checking existing user", err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	}

	now := time.Now().UTC()
	user := models.LegacyUser{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		lc.internalError(c, "error hashing password", err)
		return
	}

	result, err := lc.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	}
	if err != nil {
		lc.internalError(c, "error inserting user", err)
		return
	}
	user.ID, _ = result.InsertedID.(primitive.ObjectID)

	if _, err := lc.profiles.EnsureProfile(ctx, user.ID.Hex(), user.Username, user.Email); err != nil {
		lc.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("profile creation failed")
	}

	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login
func (lc *LegacyController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	ctx, cancel := lc.ctx(c)
	defer cancel()

	var user models.LegacyUser
	err := lc.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(input.Email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !user.ComparePassword(input.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		lc.internalError(c, "error loading user", err)
		return
	}

	token, err := authUtils.GenerateToken(user.ID.Hex(), lc.jwtSecret, legacyTokenTTL)
	if err != nil {
		lc.internalError(c, "error generating token", err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		MaxAge:   int(legacyTokenTTL.Seconds()),
		Path:     "/",
		Secure:   lc.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// CreateLegacyIssue stores a GeoJSON issue for the authenticated user.
func (lc *LegacyController) CreateLegacyIssue(c *gin.Context) {
	userID := middlewares.UserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	ownerID, err := primitive.ObjectIDFromHex(*userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Title       string          `json:"title" binding:"required,max=200"`
		Description string          `json:"description" binding:"required,max=2000"`
		Location    models.GeoPoint `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	loc := models.Location{Lng: input.Location.Coordinates[0], Lat: input.Location.Coordinates[1]}
	if !loc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates are out of range"})
		return
	}

	ctx, cancel := lc.ctx(c)
	defer cancel()

	profile, err := lc.profiles.Profile(ctx, *userID)
	if err == nil && profile.Banned {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	issue := models.LegacyIssue{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    models.NewGeoPoint(loc.Lat, loc.Lng),
		User:        ownerID,
		Status:      models.LegacyIssueStatus,
		CreatedAt:   time.Now().UTC(),
	}
	result, err := lc.issues.InsertOne(ctx, issue)
	if err != nil {
		lc.internalError(c, "error inserting legacy issue", err)
		return
	}
	issue.ID, _ = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, issue)
}

type legacyIssueOwner struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
}

type legacyIssueView struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Location    models.GeoPoint    `bson:"location" json:"location"`
	User        *legacyIssueOwner  `bson:"user,omitempty" json:"user"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// legacyIssuePipeline lists issues newest first with the owner's username.
func legacyIssuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: LegacyUsersCollection},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "user.password", Value: 0},
			{Key: "user.email", Value: 0},
		}}},
	}
}

// ListLegacyIssues returns every legacy issue with its owner's username.
func (lc *LegacyController) ListLegacyIssues(c *gin.Context) {
	ctx, cancel := lc.ctx(c)
	defer cancel()

	cursor, err := lc.issues.Aggregate(ctx, legacyIssuePipeline())
	if err != nil {
		lc.internalError(c, "error listing legacy issues", err)
		return
	}
	defer cursor.Close(ctx)

	issues := []legacyIssueView{}
	if err := cursor.All(ctx, &issues); err != nil {
		lc.internalError(c, "error decoding legacy issues", err)
		return
	}

	c.JSON(http.StatusOK, issues)
}
