package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danghamo/workload/internal/domain/shared"
)

// RedisRepository implements Repository using Redis string values with
// optimistic concurrency via WATCH
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis-backed session repository
func NewRedisRepository(client *redis.Client) Repository {
	return &RedisRepository{
		client: client,
	}
}

func sessionKey(id SessionID) string {
	return fmt.Sprintf("session:%s", id.String())
}

func trainerIndexKey(trainerUsername string) string {
	return fmt.Sprintf("idx:session:trainer:%s", trainerUsername)
}

// FindOneAndInsert implements IoC pattern for insert operations
func (r *RedisRepository) FindOneAndInsert(ctx context.Context, id SessionID, callback func() (*TrainingSession, error)) error {
	key := sessionKey(id)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.Get(ctx, key).Result()
		if err == nil {
			return shared.ErrAlreadyExists("session")
		}
		if err != redis.Nil {
			return err
		}

		result, err := callback()
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("callback returned nil session")
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(jsonBytes), 0)
			pipe.SAdd(ctx, trainerIndexKey(result.TrainerUsername), result.ID.String())
			return nil
		})

		return err
	}, key)
}

// FindOneAndUpdate implements IoC pattern for update operations
func (r *RedisRepository) FindOneAndUpdate(ctx context.Context, id SessionID, callback func(*TrainingSession) (*TrainingSession, error)) error {
	key := sessionKey(id)

	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		jsonData, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return shared.ErrNotFound("session")
		}
		if err != nil {
			return err
		}

		current := &TrainingSession{}
		if err := json.Unmarshal([]byte(jsonData), current); err != nil {
			return fmt.Errorf("failed to deserialize session: %w", err)
		}

		result, err := callback(current)
		if err != nil {
			return err
		}
		if result == nil {
			return nil // No changes
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(jsonBytes), 0)
			return nil
		})

		return err
	}, key)
}

// GetByID retrieves a session by ID
func (r *RedisRepository) GetByID(ctx context.Context, id SessionID) (*TrainingSession, error) {
	jsonData, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	s := &TrainingSession{}
	if err := json.Unmarshal([]byte(jsonData), s); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	return s, nil
}

// GetByTrainer retrieves all sessions indexed under a trainer
func (r *RedisRepository) GetByTrainer(ctx context.Context, trainerUsername string) ([]*TrainingSession, error) {
	ids, err := r.client.SMembers(ctx, trainerIndexKey(trainerUsername)).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*TrainingSession
	for _, id := range ids {
		s, err := r.GetByID(ctx, SessionID(id))
		if err != nil {
			return nil, err
		}
		if s != nil {
			sessions = append(sessions, s)
		}
	}

	return sessions, nil
}
