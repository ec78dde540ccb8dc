package models

import "time"

// Роли пользователей, проверяются в middleware и в claims токена
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя приложения
type User struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"fullName"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	PassHash       []byte    `json:"-"`
	Role           string    `json:"role"`
	ProfilePicture *string   `json:"profilePicture,omitempty"`
	Location       *string   `json:"location,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
