package service

import (
	"context"
	"encoding/json"
	"fmt"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/repository"
	"school_quiz_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	testCacheKeyPrefix      = "quiz:test:"
	questionsCacheKeyPrefix = "quiz:test_questions:"
	resultCacheKeyPrefix    = "quiz:attempt_result:"
)

// Cache 基于 Redis 的读缓存；Redis 未启用时所有操作都是空操作
type Cache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Redis: rdb, TTL: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.Redis != nil
}

func (c *Cache) get(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.Redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		logger.Log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		logger.Log.Warn("cache entry corrupted", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Redis.Set(ctx, key, data, c.TTL).Err(); err != nil {
		logger.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) del(ctx context.Context, keys ...string) {
	if !c.enabled() {
		return
	}
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidateTest 题库有任何写入都要调用
func (c *Cache) InvalidateTest(ctx context.Context, testID uint) {
	c.del(ctx, fmt.Sprintf("%s%d", testCacheKeyPrefix, testID), fmt.Sprintf("%s%d", questionsCacheKeyPrefix, testID))
}

// InvalidateAttempt 每次写答案或更新答题记录后调用
func (c *Cache) InvalidateAttempt(ctx context.Context, attemptID uint) {
	c.del(ctx, fmt.Sprintf("%s%d", resultCacheKeyPrefix, attemptID))
}

func (c *Cache) GetResult(ctx context.Context, attemptID uint) (*AttemptResult, bool) {
	var res AttemptResult
	if !c.get(ctx, fmt.Sprintf("%s%d", resultCacheKeyPrefix, attemptID), &res) {
		return nil, false
	}
	return &res, true
}

func (c *Cache) SetResult(ctx context.Context, res *AttemptResult) {
	c.set(ctx, fmt.Sprintf("%s%d", resultCacheKeyPrefix, res.AttemptID), res)
}

// QuestionBank 题库只读接口
type QuestionBank interface {
	FindTestByID(ctx context.Context, id uint) (*model.Test, error)
	ListQuestionsWithOptions(ctx context.Context, testID uint) ([]model.Question, error)
	FindQuestionsByIDs(ctx context.Context, ids []uint) ([]model.Question, error)
}

// CachedQuestionBank 在 TestRepository 前加一层缓存；答题快照按ID读取，不走缓存
type CachedQuestionBank struct {
	Repo  *repository.TestRepository
	Cache *Cache
}

func NewCachedQuestionBank(repo *repository.TestRepository, cache *Cache) *CachedQuestionBank {
	return &CachedQuestionBank{Repo: repo, Cache: cache}
}

func (b *CachedQuestionBank) FindTestByID(ctx context.Context, id uint) (*model.Test, error) {
	key := fmt.Sprintf("%s%d", testCacheKeyPrefix, id)
	var test model.Test
	if b.Cache.get(ctx, key, &test) {
		return &test, nil
	}
	t, err := b.Repo.FindTestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Cache.set(ctx, key, t)
	return t, nil
}

func (b *CachedQuestionBank) ListQuestionsWithOptions(ctx context.Context, testID uint) ([]model.Question, error) {
	key := fmt.Sprintf("%s%d", questionsCacheKeyPrefix, testID)
	var qs []model.Question
	if b.Cache.get(ctx, key, &qs) {
		return qs, nil
	}
	qs, err := b.Repo.ListQuestionsWithOptions(ctx, testID)
	if err != nil {
		return nil, err
	}
	b.Cache.set(ctx, key, qs)
	return qs, nil
}

func (b *CachedQuestionBank) FindQuestionsByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	return b.Repo.FindQuestionsByIDs(ctx, ids)
}
