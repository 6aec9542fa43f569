package model

import "github.com/google/uuid"

// ProfileSummary публичные поля профиля пользователя для отображения
type ProfileSummary struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Headline    string    `json:"headline"`
}
