package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Freeeeeet/mentorship_service/internal/repository"
	"github.com/Freeeeeet/mentorship_service/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errLockOutsideTx = errors.New("lock requested outside of transaction")

// Store реализация repository.Store поверх PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx выполняет fn в транзакции READ COMMITTED.
// Сериализация по ключам через advisory-локи (Tx.Lock); инварианты дополнительно защищены индексами.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newTxRepos(tx, true)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// View читает напрямую из пула: последнее закоммиченное состояние
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, newTxRepos(s.pool, false))
}

type txRepos struct {
	q    base.Querier
	inTx bool

	mentors     *MentorRepository
	requests    *RequestRepository
	mentorships *MentorshipRepository
	sessions    *SessionRepository
	feedback    *FeedbackRepository
}

func newTxRepos(q base.Querier, inTx bool) *txRepos {
	return &txRepos{
		q:           q,
		inTx:        inTx,
		mentors:     NewMentorRepository(q),
		requests:    NewRequestRepository(q),
		mentorships: NewMentorshipRepository(q),
		sessions:    NewSessionRepository(q),
		feedback:    NewFeedbackRepository(q),
	}
}

// Lock берёт transaction-level advisory lock на каждый ключ.
// Ключи сортируются, чтобы две транзакции не захватили их в разном порядке.
func (t *txRepos) Lock(ctx context.Context, keys ...string) error {
	if !t.inTx {
		return errLockOutsideTx
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	for _, key := range sorted {
		if _, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("advisory lock %q: %w", key, err)
		}
	}
	return nil
}

func (t *txRepos) Mentors() repository.MentorRepository         { return t.mentors }
func (t *txRepos) Requests() repository.RequestRepository       { return t.requests }
func (t *txRepos) Mentorships() repository.MentorshipRepository { return t.mentorships }
func (t *txRepos) Sessions() repository.SessionRepository       { return t.sessions }
func (t *txRepos) Feedback() repository.FeedbackRepository      { return t.feedback }

// scanner общий интерфейс pgx.Row и pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}
