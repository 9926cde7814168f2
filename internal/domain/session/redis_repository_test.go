package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danghamo/workload/internal/domain/workload"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRepository(client)
}

func newTestSession(t *testing.T) *TrainingSession {
	t.Helper()

	s, err := NewTrainingSession("jane.smith", "Jane", "Smith", true,
		"bob.trainee", "2026-02-15", 60)
	require.NoError(t, err)
	return s
}

func TestRedisRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newTestSession(t)
	require.NoError(t, repo.FindOneAndInsert(ctx, s.ID, func() (*TrainingSession, error) {
		return s, nil
	}))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "jane.smith", got.TrainerUsername)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.False(t, got.Cancelled)
}

func TestRedisRepository_InsertRejectsDuplicate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newTestSession(t)
	require.NoError(t, repo.FindOneAndInsert(ctx, s.ID, func() (*TrainingSession, error) {
		return s, nil
	}))

	err := repo.FindOneAndInsert(ctx, s.ID, func() (*TrainingSession, error) {
		return s, nil
	})
	assert.Error(t, err)
}

func TestRedisRepository_GetByIDMissing(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetByID(context.Background(), NewSessionID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRepository_UpdateCancelsSession(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newTestSession(t)
	require.NoError(t, repo.FindOneAndInsert(ctx, s.ID, func() (*TrainingSession, error) {
		return s, nil
	}))

	require.NoError(t, repo.FindOneAndUpdate(ctx, s.ID, func(current *TrainingSession) (*TrainingSession, error) {
		if err := current.Cancel(); err != nil {
			return nil, err
		}
		return current, nil
	}))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)

	// Cancelling again must surface the domain error
	err = repo.FindOneAndUpdate(ctx, s.ID, func(current *TrainingSession) (*TrainingSession, error) {
		if err := current.Cancel(); err != nil {
			return nil, err
		}
		return current, nil
	})
	assert.Error(t, err)
}

func TestRedisRepository_UpdateMissingSession(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.FindOneAndUpdate(context.Background(), NewSessionID(),
		func(current *TrainingSession) (*TrainingSession, error) {
			return current, nil
		})
	assert.Error(t, err)
}

func TestRedisRepository_GetByTrainer(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s := newTestSession(t)
		require.NoError(t, repo.FindOneAndInsert(ctx, s.ID, func() (*TrainingSession, error) {
			return s, nil
		}))
	}

	other, err := NewTrainingSession("max.power", "Max", "Power", true,
		"bob.trainee", "2026-02-16", 30)
	require.NoError(t, err)
	require.NoError(t, repo.FindOneAndInsert(ctx, other.ID, func() (*TrainingSession, error) {
		return other, nil
	}))

	sessions, err := repo.GetByTrainer(ctx, "jane.smith")
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	sessions, err = repo.GetByTrainer(ctx, "max.power")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestTrainingSession_DeltaDerivation(t *testing.T) {
	s := newTestSession(t)

	add := s.Delta(workload.ActionAdd)
	assert.NoError(t, add.Validate())
	assert.Equal(t, "jane.smith", add.Username)
	assert.Equal(t, "2026-02-15", add.TrainingDate)
	assert.Equal(t, 60, add.DurationMinutes)
	assert.Equal(t, workload.ActionAdd, add.Action)
	assert.NotEmpty(t, add.RequestID)

	remove := s.Delta(workload.ActionRemove)
	assert.Equal(t, workload.ActionRemove, remove.Action)
	assert.NotEqual(t, add.RequestID, remove.RequestID, "each delivery gets its own request ID")
}

func TestNewTrainingSession_Validation(t *testing.T) {
	_, err := NewTrainingSession("", "Jane", "Smith", true, "bob", "2026-02-15", 60)
	assert.Error(t, err)

	_, err = NewTrainingSession("jane.smith", "Jane", "Smith", true, "", "2026-02-15", 60)
	assert.Error(t, err)

	_, err = NewTrainingSession("jane.smith", "Jane", "Smith", true, "bob", "2026-02-15", 0)
	assert.Error(t, err)

	_, err = NewTrainingSession("jane.smith", "Jane", "Smith", true, "bob", "Feb 15", 60)
	assert.Error(t, err)
}
