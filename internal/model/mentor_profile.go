package model

import (
	"time"

	"github.com/google/uuid"
)

// MentorProfile профиль ментора в каталоге
type MentorProfile struct {
	MentorID          uuid.UUID `json:"mentor_id"`
	ExpertiseTags     []string  `json:"expertise_tags"`
	AverageRating     float64   `json:"average_rating"` // 0-5, пересчитывается из отзывов
	RatingCount       int       `json:"rating_count"`
	IsAvailable       bool      `json:"is_available"`
	IsActive          bool      `json:"is_active"`   // false = деактивирован, профили не удаляются
	MaxMentees        *int      `json:"max_mentees"` // nil = без ограничения
	YearsOfExperience int       `json:"years_of_experience"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Вычисляется при чтении (не хранится)
	ActiveMentees int `json:"active_mentees"`
}

// AcceptsRequests ментор виден и готов принимать заявки
func (p *MentorProfile) AcceptsRequests() bool {
	return p.IsActive && p.IsAvailable
}

// HasCapacity есть ли место для ещё одного подопечного
func (p *MentorProfile) HasCapacity() bool {
	if p.MaxMentees == nil {
		return true
	}
	return p.ActiveMentees < *p.MaxMentees
}

// FreeSlots свободные места; -1 для неограниченного профиля
func (p *MentorProfile) FreeSlots() int {
	if p.MaxMentees == nil {
		return -1
	}
	free := *p.MaxMentees - p.ActiveMentees
	if free < 0 {
		return 0
	}
	return free
}

type MentorSort string

const (
	MentorSortRating       MentorSort = "rating"
	MentorSortExperience   MentorSort = "experience"
	MentorSortAvailability MentorSort = "availability"
)

// MentorFilter параметры поиска по каталогу
type MentorFilter struct {
	Expertise     []string
	MinRating     float64
	AvailableOnly bool
	Search        string
	SortBy        MentorSort
	Page          int // с 1
	PageSize      int
}

// Offset смещение для текущей страницы
func (f MentorFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// MentorPage страница результатов каталога
type MentorPage struct {
	Mentors    []*MentorProfile `json:"mentors"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
