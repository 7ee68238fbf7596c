package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bdhxxnix/auto-repair/internal/garage/entity"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	summaryCacheKey       = "garage:report:summary"
	defaultReportCacheTTL = 5 * time.Minute
)

// reportCache 报表缓存，任何工单或库存变更后失效
type reportCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func newReportCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *reportCache {
	if ttl <= 0 {
		ttl = defaultReportCacheTTL
	}
	return &reportCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *reportCache) get(ctx context.Context, key string, dst interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *reportCache) set(ctx context.Context, key string, v interface{}) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *reportCache) invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, summaryCacheKey).Err(); err != nil {
		c.logger.Warn("report cache invalidate failed", zap.Error(err))
	}
}

// ObjectStore 对象存储，*minio.Client 即满足
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArchiveResult 归档结果
type ArchiveResult struct {
	Bucket string `json:"bucket"`
	Object string `json:"object"`
	Size   int64  `json:"size"`
}

type archiver struct {
	store  ObjectStore
	bucket string
}

func newArchiver(store ObjectStore, bucket string) *archiver {
	return &archiver{store: store, bucket: bucket}
}

func (a *archiver) put(ctx context.Context, object string, data []byte, contentType string) (*ArchiveResult, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", entity.ErrConfiguration)
	}
	_, err := a.store.PutObject(ctx, a.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("上传归档失败: %w", err)
	}
	return &ArchiveResult{Bucket: a.bucket, Object: object, Size: int64(len(data))}, nil
}

func archiveStamp(t time.Time) string {
	return t.Format("20060102-150405")
}
