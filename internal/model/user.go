package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	TelegramID *int64    `json:"telegram_id,omitempty"` // привязка к чату бота, может быть nil
	CreatedAt  time.Time `json:"created_at"`
}

// IsDoctor проверяет, является ли пользователь врачом
func (u *User) IsDoctor() bool {
	return u != nil && u.Role == RoleDoctor
}

// IsStudent проверяет, является ли пользователь студентом
func (u *User) IsStudent() bool {
	return u != nil && u.Role == RoleStudent
}
