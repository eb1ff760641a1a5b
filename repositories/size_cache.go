package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sizeCacheTTL = 60 * time.Second

type RedisSizeCache struct {
	client *redis.Client
}

func NewRedisSizeCache(client *redis.Client) *RedisSizeCache {
	return &RedisSizeCache{client: client}
}

func sizeKey(folderID uint) string {
	return fmt.Sprintf("folder_size:%d", folderID)
}

func (c *RedisSizeCache) GetFolderSize(ctx context.Context, folderID uint) (int64, bool, error) {
	size, err := c.client.Get(ctx, sizeKey(folderID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return size, true, nil
}

func (c *RedisSizeCache) SetFolderSize(ctx context.Context, folderID uint, size int64) error {
	return c.client.Set(ctx, sizeKey(folderID), size, sizeCacheTTL).Err()
}

func (c *RedisSizeCache) InvalidateFolders(ctx context.Context, folderIDs []uint) error {
	if len(folderIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(folderIDs))
	for _, id := range folderIDs {
		keys = append(keys, sizeKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
