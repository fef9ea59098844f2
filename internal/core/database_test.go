// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockProvider(t *testing.T) (*TxProvider, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewTxProvider(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE posts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.WithinTx(context.Background(), func(ctx context.Context, q DBTX) error {
		_, err := q.ExecContext(ctx, "UPDATE posts SET title = $1", "x")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackAndReturnsErrorUnchanged(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	want := Invalid("update post", "title", "must not be empty")
	err := p.WithinTx(context.Background(), func(context.Context, DBTX) error {
		return want
	})

	assert.Same(t, want, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = p.WithinTx(context.Background(), func(context.Context, DBTX) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxIgnoresCallerCancellation(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	err := p.WithinTx(ctx, func(txCtx context.Context, _ DBTX) error {
		cancel()
		return txCtx.Err()
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxBeginFailure(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := p.WithinTx(context.Background(), func(context.Context, DBTX) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestJitteredDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitteredDuration(0))

	base := 7 * time.Minute
	for range 50 {
		d := jitteredDuration(base)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+base/7)
	}
}
