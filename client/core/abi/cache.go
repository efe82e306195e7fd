package abi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wire"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// Source 规范化函数签名来源
type Source interface {
	GetNormalizedMoveFunction(ctx context.Context, pkg types.ObjectID, module, function string) (*transport.NormalizedFunction, error)
}

// Config 签名缓存配置
type Config struct {
	LifeWindow         time.Duration `json:"life_window" yaml:"life_window"`
	CleanWindow        time.Duration `json:"clean_window" yaml:"clean_window"`
	MaxEntriesInWindow int           `json:"max_entries_in_window" yaml:"max_entries_in_window"`
	MaxEntrySize       int           `json:"max_entry_size" yaml:"max_entry_size"`
	HardMaxCacheSizeMB int           `json:"hard_max_cache_size_mb" yaml:"hard_max_cache_size_mb"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		LifeWindow:         10 * time.Minute,
		CleanWindow:        5 * time.Minute,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       2048,
		HardMaxCacheSizeMB: 8,
	}
}

// Cache 函数签名缓存
//
// 已发布的包不可变，签名在生命周期窗口内可直接复用。
type Cache struct {
	source Source
	cache  *bigcache.BigCache
	logger logInterface.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache 创建签名缓存
func NewCache(config Config, source Source, logger logInterface.Logger) (*Cache, error) {
	if source == nil {
		return nil, errors.New("abi: nil signature source")
	}

	defaults := DefaultConfig()
	if config.LifeWindow <= 0 {
		config.LifeWindow = defaults.LifeWindow
	}
	if config.CleanWindow <= 0 {
		config.CleanWindow = defaults.CleanWindow
	}
	if config.MaxEntriesInWindow <= 0 {
		config.MaxEntriesInWindow = defaults.MaxEntriesInWindow
	}
	if config.MaxEntrySize <= 0 {
		config.MaxEntrySize = defaults.MaxEntrySize
	}

	bigCacheConfig := bigcache.DefaultConfig(config.LifeWindow)
	bigCacheConfig.CleanWindow = config.CleanWindow
	bigCacheConfig.MaxEntriesInWindow = config.MaxEntriesInWindow
	bigCacheConfig.MaxEntrySize = config.MaxEntrySize
	bigCacheConfig.HardMaxCacheSize = config.HardMaxCacheSizeMB
	bigCacheConfig.Shards = 16
	bigCacheConfig.Verbose = false

	cache, err := bigcache.New(context.Background(), bigCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("create signature cache: %w", err)
	}

	return &Cache{
		source: source,
		cache:  cache,
		logger: infralog.NewModuleLogger(logger, "abi"),
	}, nil
}

func cacheKey(pkg types.ObjectID, module, function string) string {
	return pkg.String() + "::" + module + "::" + function
}

// Function 获取函数签名，未命中时向来源查询
func (c *Cache) Function(ctx context.Context, pkg types.ObjectID, module, function string) (*Signature, error) {
	key := cacheKey(pkg, module, function)

	if data, err := c.cache.Get(key); err == nil {
		var sig Signature
		if err := json.Unmarshal(data, &sig); err == nil {
			c.hits.Add(1)
			return &sig, nil
		}
		_ = c.cache.Delete(key)
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		c.logger.Warnf("read signature cache %s: %v", key, err)
	}
	c.misses.Add(1)

	fn, err := c.source.GetNormalizedMoveFunction(ctx, pkg, module, function)
	if err != nil {
		return nil, fmt.Errorf("fetch signature %s: %w", key, err)
	}

	data, err := json.Marshal(fn)
	if err != nil {
		return nil, fmt.Errorf("encode signature %s: %w", key, err)
	}
	var sig Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("decode signature %s: %w", key, err)
	}

	if err := c.cache.Set(key, data); err != nil {
		// 超过单项大小上限时只是不缓存
		c.logger.With("key", key, "error", err.Error()).Debug("signature not cached")
	}
	return &sig, nil
}

// Check 按目标函数签名核对参数
func (c *Cache) Check(ctx context.Context, desc types.CallDescriptor, args []wire.Value) error {
	pkg, err := desc.Validate()
	if err != nil {
		return err
	}
	sig, err := c.Function(ctx, pkg, desc.Module, desc.Function)
	if err != nil {
		return err
	}
	return CheckArguments(desc.Target(), sig, args)
}

// Stats 命中与未命中次数
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len 缓存条目数
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Close 释放缓存
func (c *Cache) Close() error {
	return c.cache.Close()
}
