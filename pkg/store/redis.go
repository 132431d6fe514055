package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/modulab/dungen/pkg/errors"
	"github.com/modulab/dungen/pkg/layout"
)

const (
	redisKeyPrefix = "dungen:layout:"
	redisIndexKey  = "dungen:layouts"
)

// Redis stores layouts as JSON values keyed by ID, with a set holding the
// index of known IDs.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the Redis instance at url (redis://host:port/db) and
// verifies the connection with a ping.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis")
	}
	return &Redis{client: client}, nil
}

func (s *Redis) Save(ctx context.Context, l *layout.Layout) error {
	data, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "encode layout %s", l.ID)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+l.ID, data, 0)
	pipe.SAdd(ctx, redisIndexKey, l.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save layout %s", l.ID)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (*layout.Layout, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout %s", id)
	}
	return &l, nil
}

func (s *Redis) List(ctx context.Context) ([]Info, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}

	var infos []Info
	for _, id := range ids {
		l, err := s.Get(ctx, id)
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeNotFound {
				// Index entry without a value: a partially deleted layout.
				_ = s.client.SRem(ctx, redisIndexKey, id).Err()
				continue
			}
			return nil, err
		}
		infos = append(infos, Info{
			ID:        l.ID,
			Theme:     l.Theme,
			Seed:      l.Seed,
			Modules:   len(l.Modules),
			CreatedAt: l.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	_ = s.client.SRem(ctx, redisIndexKey, id).Err()
	if deleted == 0 {
		return notFound(id)
	}
	return nil
}

func (s *Redis) Close() error {
	return s.client.Close()
}

var _ Store = (*Redis)(nil)
