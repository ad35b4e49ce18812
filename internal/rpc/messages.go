package rpc

import (
	"encoding/json"
	"time"
)

// User is the wire form of an account view.
type User struct {
	ID            string          `json:"Id"`
	Name          string          `json:"Name"`
	HasPassword   bool            `json:"HasPassword"`
	Configuration json.RawMessage `json:"Configuration"`
	Libraries     []string        `json:"Libraries"`
	ItemCount     int             `json:"ItemCount"`
	CreatedAt     time.Time       `json:"DateCreated"`
	UpdatedAt     time.Time       `json:"DateModified"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*User `json:"Users"`
}

type GetUserRequest struct {
	ID string `json:"Id"`
}

type GetUserResponse struct {
	User *User `json:"User"`
}

type CreateUserRequest struct {
	Name          string          `json:"Name"`
	Configuration json.RawMessage `json:"Configuration,omitempty"`
}

type CreateUserResponse struct {
	User *User `json:"User"`
}

type UpdateUserRequest struct {
	ID            string          `json:"Id"`
	Name          string          `json:"Name"`
	Configuration json.RawMessage `json:"Configuration,omitempty"`
}

type UpdateUserResponse struct {
	User *User `json:"User"`
}

type DeleteUserRequest struct {
	ID string `json:"Id"`
}

type DeleteUserResponse struct{}

type AuthenticateRequest struct {
	ID       string `json:"Id"`
	Password string `json:"Password"`
}

type AuthenticateResponse struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
}

// UpdatePasswordRequest changes the password of ID. With ResetPassword set
// CurrentPassword is ignored and the caller must present an access token.
type UpdatePasswordRequest struct {
	ID              string `json:"Id"`
	CurrentPassword string `json:"CurrentPassword"`
	NewPassword     string `json:"NewPassword"`
	ResetPassword   bool   `json:"ResetPassword"`
}

type UpdatePasswordResponse struct{}

type RefreshTokenRequest struct {
	RefreshToken string `json:"RefreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"Status"`
}
