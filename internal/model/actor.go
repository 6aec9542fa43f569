package model

import "github.com/google/uuid"

type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleSystem  Role = "system"
)

// Valid проверяет, что роль известна
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleSystem:
		return true
	}
	return false
}

// Actor вызывающая сторона, как её определил identity-слой
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// SystemActor действие инициировано самим сервисом (sweep, cron)
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}
