// Package memory хранилище в памяти для разработки и тестов.
// Повторяет гарантии PostgreSQL-реализации: уникальность, пересечения, CAS-переходы.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/google/uuid"
)

var errReadOnly = errors.New("write attempted in read-only view")

type state struct {
	mentors     map[uuid.UUID]*model.MentorProfile
	requests    map[uuid.UUID]*model.MentorshipRequest
	mentorships map[uuid.UUID]*model.Mentorship
	sessions    map[uuid.UUID]*model.Session
	feedback    map[uuid.UUID]*model.Feedback
}

func newState() *state {
	return &state{
		mentors:     make(map[uuid.UUID]*model.MentorProfile),
		requests:    make(map[uuid.UUID]*model.MentorshipRequest),
		mentorships: make(map[uuid.UUID]*model.Mentorship),
		sessions:    make(map[uuid.UUID]*model.Session),
		feedback:    make(map[uuid.UUID]*model.Feedback),
	}
}

// clone копия состояния; записи неизменяемы снаружи, поэтому копируются только указатели на копии
func (s *state) clone() *state {
	c := newState()
	for id, v := range s.mentors {
		c.mentors[id] = copyMentor(v)
	}
	for id, v := range s.requests {
		r := *v
		c.requests[id] = &r
	}
	for id, v := range s.mentorships {
		m := *v
		c.mentorships[id] = &m
	}
	for id, v := range s.sessions {
		ss := *v
		c.sessions[id] = &ss
	}
	for id, v := range s.feedback {
		f := *v
		c.feedback[id] = &f
	}
	return c
}

// Store реализация repository.Store в памяти.
// Транзакции выполняются строго по одной над копией состояния, которая подменяет
// исходное только при успешном завершении.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(ctx, &txRepos{st: draft}); err != nil {
		return err
	}

	s.state = draft
	return nil
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &txRepos{st: s.state, readOnly: true})
}

type txRepos struct {
	st       *state
	readOnly bool
}

// Lock транзакции уже сериализованы мьютексом хранилища
func (t *txRepos) Lock(ctx context.Context, keys ...string) error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *txRepos) Mentors() repository.MentorRepository         { return &mentorRepo{t} }
func (t *txRepos) Requests() repository.RequestRepository       { return &requestRepo{t} }
func (t *txRepos) Mentorships() repository.MentorshipRepository { return &mentorshipRepo{t} }
func (t *txRepos) Sessions() repository.SessionRepository       { return &sessionRepo{t} }
func (t *txRepos) Feedback() repository.FeedbackRepository      { return &feedbackRepo{t} }

func (t *txRepos) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *txRepos) activeMentees(mentorID uuid.UUID) int {
	n := 0
	for _, m := range t.st.mentorships {
		if m.MentorID == mentorID && m.Status == model.MentorshipStatusActive {
			n++
		}
	}
	return n
}

func copyMentor(p *model.MentorProfile) *model.MentorProfile {
	c := *p
	c.ExpertiseTags = append([]string(nil), p.ExpertiseTags...)
	if p.MaxMentees != nil {
		v := *p.MaxMentees
		c.MaxMentees = &v
	}
	return &c
}
