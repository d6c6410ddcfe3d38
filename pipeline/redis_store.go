package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/redis"
)

// RedisStore keeps jobs in Redis as JSON documents under
// "<prefix>:job:<id>" with a "<prefix>:job-hash:<hash>:<name>" index of done
// jobs.
type RedisStore struct {
	client *redis.Client
	jobs   *redis.TypedStore[Job]
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Store using the client's key prefix and job TTL.
func NewRedisStore(client *redis.Client) *RedisStore {
	prefix := client.Config().KeyPrefix
	return &RedisStore{
		client: client,
		jobs:   redis.NewTypedStore[Job](client, joinKey(prefix, "job")),
		prefix: prefix,
	}
}

// Save writes the job and, for done jobs, its hash index entry.
func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return apperrors.MissingField("id")
	}
	ttl := s.client.Config().JobTTL
	if err := s.jobs.Save(ctx, job.ID, job, ttl); err != nil {
		return apperrors.StorageError("save job", err)
	}
	if job.State == StateDone && job.ContentHash != "" {
		if err := s.client.Set(ctx, s.hashKey(job.ContentHash, job.Name), job.ID, ttl); err != nil {
			return apperrors.StorageError("index job", err)
		}
	}
	return nil
}

// Get loads a job by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	job, err := s.jobs.Load(ctx, id)
	if err != nil {
		return nil, apperrors.StorageError("load job", err)
	}
	if job == nil {
		return nil, apperrors.NotFound("job", id)
	}
	return job, nil
}

// FindByHash follows the hash index. A dangling index entry (the job record
// expired first) reads as a miss.
func (s *RedisStore) FindByHash(ctx context.Context, hash, name string) (*Job, error) {
	id, err := s.client.Get(ctx, s.hashKey(hash, name))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, apperrors.StorageError("find job by hash", err)
	}
	job, err := s.jobs.Load(ctx, id)
	if err != nil {
		return nil, apperrors.StorageError("load job", err)
	}
	return job, nil
}

func (s *RedisStore) hashKey(hash, name string) string {
	return joinKey(s.prefix, fmt.Sprintf("job-hash:%s:%s", hash, name))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
