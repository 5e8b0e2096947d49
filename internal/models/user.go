package models

import (
	"time"

	"github.com/google/uuid"
)

// Role роль пользователя
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole проверяет роль
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет пользователя площадки
type User struct {
	ID          uuid.UUID `json:"id"`
	TelegramID  int64     `json:"telegram_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Role        Role      `json:"role"`
	IsDemo      bool      `json:"is_demo"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// DisplayName возвращает имя для отображения контрагентам
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "user-" + u.ID.String()[:8]
	}
}
