package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the per-account record administrators manage.
type Profile struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Name        *string   `bson:"name,omitempty" json:"name"`
	Email       *string   `bson:"email,omitempty" json:"email"`
	IsAdmin     bool      `bson:"is_admin" json:"is_admin"`
	Banned      bool      `bson:"banned" json:"banned"`
	LocationLat *float64  `bson:"location_lat,omitempty" json:"location_lat"`
	LocationLng *float64  `bson:"location_lng,omitempty" json:"location_lng"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// HomeLocation returns the profile's saved location, if both coordinates are set.
func (p Profile) HomeLocation() (Location, bool) {
	if p.LocationLat == nil || p.LocationLng == nil {
		return Location{}, false
	}
	return Location{Lat: *p.LocationLat, Lng: *p.LocationLng}, true
}

// LegacyUser is an account on the deprecated REST surface.
type LegacyUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *LegacyUser) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *LegacyUser) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
