package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
)

// Store единая точка доступа к хранилищу.
// Все записи выполняются внутри WithinTx: либо коммитится всё, либо ничего.
type Store interface {
	// WithinTx выполняет fn в транзакции. Ошибка из fn откатывает транзакцию.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View выполняет fn на последнем закоммиченном состоянии без записи
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx репозитории, привязанные к одной транзакции
type Tx interface {
	// Lock сериализует транзакции по ключам до конца текущей транзакции
	Lock(ctx context.Context, keys ...string) error

	Mentors() MentorRepository
	Requests() RequestRepository
	Mentorships() MentorshipRepository
	Sessions() SessionRepository
	Feedback() FeedbackRepository
}

type MentorRepository interface {
	// Upsert создаёт профиль или обновляет теги/опыт/лимит и активирует его
	Upsert(ctx context.Context, profile *model.MentorProfile) error
	// GetByID возвращает nil, nil если профиля нет
	GetByID(ctx context.Context, mentorID uuid.UUID) (*model.MentorProfile, error)
	List(ctx context.Context, filter model.MentorFilter) ([]*model.MentorProfile, int, error)
	ExpertiseAreas(ctx context.Context) ([]string, error)
	SetAvailability(ctx context.Context, mentorID uuid.UUID, available bool, at time.Time) error
	SetCapacity(ctx context.Context, mentorID uuid.UUID, maxMentees *int, at time.Time) error
	Deactivate(ctx context.Context, mentorID uuid.UUID, at time.Time) error
	UpdateRating(ctx context.Context, mentorID uuid.UUID, stats model.RatingStats, at time.Time) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.MentorshipRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MentorshipRequest, error)
	GetPendingByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.MentorshipRequest, error)
	GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.MentorshipRequest, error)
	GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.MentorshipRequest, error)
	// Transition меняет статус только если текущий равен from
	Transition(ctx context.Context, id uuid.UUID, from, to model.RequestStatus, decidedAt time.Time, reason *string) (bool, error)
}

type MentorshipRepository interface {
	Create(ctx context.Context, m *model.Mentorship) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Mentorship, error)
	GetActiveByPair(ctx context.Context, studentID, mentorID uuid.UUID) (*model.Mentorship, error)
	GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Mentorship, error)
	GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Mentorship, error)
	CountActiveByMentor(ctx context.Context, mentorID uuid.UUID) (int, error)
	Transition(ctx context.Context, id uuid.UUID, from, to model.MentorshipStatus, endedAt time.Time, reason *string) (bool, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetByMentorship(ctx context.Context, mentorshipID uuid.UUID) ([]*model.Session, error)
	GetByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Session, error)
	GetByMentor(ctx context.Context, mentorID uuid.UUID) ([]*model.Session, error)
	// FindOverlapping scheduled-сессии ментора, пересекающие [start,end); excludeID = uuid.Nil не исключает ничего
	FindOverlapping(ctx context.Context, mentorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*model.Session, error)
	Reschedule(ctx context.Context, id uuid.UUID, start, end, at time.Time) (bool, error)
	// Transition меняет статус, если текущий входит в from; by пишется в cancelled_by / no_show_reported_by
	Transition(ctx context.Context, id uuid.UUID, from []model.SessionStatus, to model.SessionStatus, by *uuid.UUID, at time.Time) (bool, error)
	// CancelFutureByMentorship отменяет scheduled-сессии, начинающиеся после after
	CancelFutureByMentorship(ctx context.Context, mentorshipID uuid.UUID, after time.Time, by uuid.UUID) (int64, error)
	// CompleteElapsed переводит в completed все scheduled-сессии, закончившиеся к now
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, f *model.Feedback) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.Feedback, error)
	GetBySubmitter(ctx context.Context, userID uuid.UUID) ([]*model.Feedback, error)
	Exists(ctx context.Context, sessionID uuid.UUID, role model.Role) (bool, error)
	// RatingStatsForMentor среднее по отзывам студентов на все сессии ментора
	RatingStatsForMentor(ctx context.Context, mentorID uuid.UUID) (model.RatingStats, error)
}

// PairKey ключ сериализации переходов пары студент-ментор
func PairKey(studentID, mentorID uuid.UUID) string {
	return fmt.Sprintf("pair:%s:%s", studentID, mentorID)
}

// MentorScheduleKey ключ сериализации бронирований ментора
func MentorScheduleKey(mentorID uuid.UUID) string {
	return "mentor-schedule:" + mentorID.String()
}

// MentorRatingKey ключ сериализации пересчёта рейтинга
func MentorRatingKey(mentorID uuid.UUID) string {
	return "mentor-rating:" + mentorID.String()
}
