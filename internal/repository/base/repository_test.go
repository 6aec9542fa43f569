package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "mentorship_requests_pending_pair_idx"})

	assert.True(t, IsUniqueViolation(err, "mentorship_requests_pending_pair_idx"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "other_idx"))
	assert.False(t, IsExclusionViolation(err, ""))
}

func TestIsExclusionViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23P01", ConstraintName: "sessions_no_overlap"}

	assert.True(t, IsExclusionViolation(err, "sessions_no_overlap"))
	assert.False(t, IsUniqueViolation(err, ""))
}
