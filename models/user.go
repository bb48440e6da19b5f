package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	UserRoleClient = "client"
	UserRoleAdmin  = "admin"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email       string             `json:"email" bson:"email" validate:"required,email"`
	Password    string             `json:"-" bson:"password" validate:"required"`
	Username    string             `json:"username" bson:"username" validate:"required,trimmed"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	Role        string             `json:"role" bson:"role" validate:"oneof=client admin"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	VerifyToken string             `json:"-" bson:"verifyToken"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   *time.Time         `json:"updatedAt" bson:"updatedAt"`
	Destroy     bool               `json:"_destroy" bson:"_destroy"`
}

// UserSummary is the public-safe projection of a user. It never carries
// the password hash or the verify token.
type UserSummary struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Email       string             `json:"email" bson:"email"`
	Username    string             `json:"username" bson:"username"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	Role        string             `json:"role" bson:"role"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   *time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Summary strips credential fields
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Validate checks the user before insert
func (u User) Validate() error {
	return check(u)
}
