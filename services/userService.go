package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"civictrack/models"
	"civictrack/store"

	"github.com/rs/zerolog"
)

type UserService struct {
	profiles store.ProfileStore
	logger   zerolog.Logger
}

func NewUserService(profiles store.ProfileStore, logger zerolog.Logger) *UserService {
	return &UserService{
		profiles: profiles,
		logger:   logger.With().Str("component", "users").Logger(),
	}
}

func (s *UserService) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, storeErr("list profiles", err)
	}
	return profiles, nil
}

// Profile looks a profile up by its account reference.
func (s *UserService) Profile(ctx context.Context, userID string) (models.Profile, error) {
	profile, err := s.profiles.FindProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, storeErr("get profile", err)
	}
	return profile, nil
}

// EnsureProfile creates a profile for a newly signed-up account unless one
// already exists.
func (s *UserService) EnsureProfile(ctx context.Context, userID, name, email string) (models.Profile, error) {
	existing, err := s.profiles.FindProfile(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Profile{}, storeErr("get profile", err)
	}

	profile := models.Profile{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if name = strings.TrimSpace(name); name != "" {
		profile.Name = &name
	}
	if email = strings.TrimSpace(email); email != "" {
		profile.Email = &email
	}
	if err := s.profiles.InsertProfile(ctx, &profile); err != nil {
		return models.Profile{}, storeErr("create profile", err)
	}
	return profile, nil
}

// Ban marks the account as banned. Banning is idempotent and never undone.
func (s *UserService) Ban(ctx context.Context, userID string) (models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Profile{}, invalid("user_id", "is required")
	}
	profile, err := s.profiles.BanProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, storeErr("ban user", err)
	}
	s.logger.Info().Str("user_id", userID).Msg("user banned")
	return profile, nil
}
