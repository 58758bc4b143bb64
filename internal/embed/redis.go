package embed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"microsim-matcher/internal/types"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "simmatch:embed:"

// RedisStore shares cached vectors between processes. Vectors are stored
// as little-endian float32 bytes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (types.Vector, bool, error) {
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, v types.Vector) error {
	return r.rdb.Set(ctx, redisKeyPrefix+key, encodeVector(v), r.ttl).Err()
}

func encodeVector(v types.Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte) (types.Vector, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 4", len(data))
	}
	v := make(types.Vector, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
