package config

import (
	"github.com/pkg/errors"

	"github.com/blobindexer/syncer/internal/queue"
	"github.com/blobindexer/syncer/internal/queue/local"
	"github.com/blobindexer/syncer/internal/queue/redis"
)

// ConnectBackend opens the queue backend selected by QUEUE_BACKEND.
func (c *Config) ConnectBackend() (queue.Backend, error) { //nolint:ireturn // backend is picked at runtime
	switch c.QueueBackend {
	case LocalBackend:
		return local.NewBackend(), nil
	case RedisBackend:
		b, err := redis.Connect(c.RedisURI)
		if err != nil {
			return nil, errors.Wrapf(err, "connect to redis at %s", c.RedisURI)
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown queue backend '%s'", c.QueueBackend)
	}
}
