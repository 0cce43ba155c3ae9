package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultAvatar is stored for users who never picked an avatar.
const DefaultAvatar = "https://ui-avatars.com/api/?background=random&name=User"

// SignupAvatar is the preset assigned at signup when none is supplied.
const SignupAvatar = "Avatar1"

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	About        string             `bson:"about" json:"about"`
	IsAdmin      bool               `bson:"is_admin" json:"is_admin"`
	IsVerified   bool               `bson:"is_verified" json:"is_verified"`
	Location     *Location          `bson:"location,omitempty" json:"location,omitempty"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the subset of a user returned by signup and login.
type PublicUser struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Avatar   string             `json:"avatar"`
}

// Public returns the user's public fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
	}
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Avatar   string `json:"avatar"`
}

// LoginRequest represents a login request. Either email or username
// identifies the account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required_without=Username"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// SignupResponse represents a successful signup response
type SignupResponse struct {
	Message      string     `json:"message"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	User         PublicUser `json:"user"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Message      string     `json:"message"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	User         PublicUser `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Exp      int64  `json:"exp"`
}
