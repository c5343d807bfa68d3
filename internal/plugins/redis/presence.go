package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPresenceStore tracks room occupancy in a ZSET per room, scored by
// last check-in time. Reads trim stale members first, so the set is
// self-cleaning.
type RedisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{rdb: rdb}
}

func presenceKey(room string) string {
	return "presence:" + room
}

func (p *RedisPresenceStore) UpdateOnlineStatus(
	ctx context.Context,
	room string,
	userID int,
	ttl time.Duration, // inactivity threshold
) error {
	key := presenceKey(room)
	now := time.Now().Unix()

	err := p.rdb.ZAdd(ctx, key, redis.Z{
		Score:  float64(now),
		Member: strconv.Itoa(userID),
	}).Err()
	if err != nil {
		return err
	}

	// Expire the whole ZSet so an abandoned room doesn't leak memory.
	return p.rdb.Expire(ctx, key, ttl*2).Err()
}

func (p *RedisPresenceStore) GetOnlineUsers(ctx context.Context, room string) ([]int, error) {
	key := presenceKey(room)

	// "online" = checked in within the last 30 seconds
	threshold := time.Now().Add(-30 * time.Second).Unix()

	// Trim stale members first
	p.rdb.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(threshold, 10))

	members, err := p.rdb.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	users := make([]int, 0, len(members))
	for _, m := range members {
		if id, err := strconv.Atoi(m); err == nil {
			users = append(users, id)
		}
	}
	return users, nil
}

func (p *RedisPresenceStore) RemoveUser(ctx context.Context, room string, userID int) error {
	return p.rdb.ZRem(ctx, presenceKey(room), strconv.Itoa(userID)).Err()
}

func (p *RedisPresenceStore) ClearRoom(ctx context.Context, room string) error {
	return p.rdb.Del(ctx, presenceKey(room)).Err()
}
