package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/expansion/v1/client/core/transport/retry"
	"github.com/expansion/v1/client/core/wire"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// ClientConfig 客户端配置
type ClientConfig struct {
	// 节点端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints" yaml:"endpoints"`

	// 单次请求超时
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// 构建与查询类调用的重试策略；提交交易从不重试
	Retry retry.Config `json:"retry" yaml:"retry"`

	// 健康检查间隔，0 表示不做后台检查
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name" yaml:"name"`
	Priority int    `json:"priority" yaml:"priority"` // 数字越小越优先

	// 协议端点，JSONRPC 优先
	JSONRPC string `json:"jsonrpc,omitempty" yaml:"jsonrpc,omitempty"`
	WS      string `json:"ws,omitempty" yaml:"ws,omitempty"`
}

// NamedClient 带名称与优先级的客户端
type NamedClient struct {
	Name     string
	Priority int
	Client   Client
}

// FallbackClient 支持故障转移的客户端
type FallbackClient struct {
	config    ClientConfig
	clients   []clientWithPriority
	current   int
	strategy  retry.Strategy
	logger    logInterface.Logger
	mu        sync.RWMutex
	closeCh   chan struct{}
	closeOnce sync.Once
}

type clientWithPriority struct {
	name      string
	priority  int
	client    Client
	healthy   bool
	lastCheck time.Time
}

// NewClient 按 URL 协议创建单端点客户端（ws/wss 使用 WebSocket）
func NewClient(ctx context.Context, endpoint string, timeout time.Duration, logger logInterface.Logger) (Client, error) {
	if endpoint == "" {
		return nil, errors.New("empty endpoint")
	}
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		return NewWebSocketClient(ctx, endpoint, logger)
	}
	return NewJSONRPCClient(endpoint, timeout, logger), nil
}

// NewFallbackClient 按配置创建各端点客户端
func NewFallbackClient(ctx context.Context, config ClientConfig, logger logInterface.Logger) (*FallbackClient, error) {
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}

	named := make([]NamedClient, 0, len(config.Endpoints))
	for _, ep := range config.Endpoints {
		url := ep.JSONRPC
		if url == "" {
			url = ep.WS
		}
		if url == "" {
			continue // 跳过无效端点
		}

		client, err := NewClient(ctx, url, config.Timeout, logger)
		if err != nil {
			// 记录但不失败
			infralog.NewModuleLogger(logger, "transport").
				With("endpoint", ep.Name, "error", err.Error()).
				Warn("endpoint unavailable, skipped")
			continue
		}
		named = append(named, NamedClient{Name: ep.Name, Priority: ep.Priority, Client: client})
	}

	if len(named) == 0 {
		return nil, fmt.Errorf("no valid clients created")
	}
	return NewFallbackClientFrom(named, config, logger), nil
}

// NewFallbackClientFrom 用已有客户端构造
func NewFallbackClientFrom(clients []NamedClient, config ClientConfig, logger logInterface.Logger) *FallbackClient {
	fc := &FallbackClient{
		config:   config,
		clients:  make([]clientWithPriority, 0, len(clients)),
		strategy: retry.NewStrategy(config.Retry, logger),
		logger:   infralog.NewModuleLogger(logger, "transport"),
		closeCh:  make(chan struct{}),
	}
	for _, nc := range clients {
		fc.clients = append(fc.clients, clientWithPriority{
			name:     nc.Name,
			priority: nc.Priority,
			client:   nc.Client,
			healthy:  true, // 初始假设健康
		})
	}

	sort.SliceStable(fc.clients, func(i, j int) bool {
		return fc.clients[i].priority < fc.clients[j].priority
	})

	if config.HealthCheckInterval > 0 {
		go fc.healthCheckLoop()
	}
	return fc
}

// healthCheckLoop 健康检查循环
func (fc *FallbackClient) healthCheckLoop() {
	ticker := time.NewTicker(fc.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fc.checkAllClients()
		case <-fc.closeCh:
			return
		}
	}
}

// checkAllClients 检查所有客户端健康状态
func (fc *FallbackClient) checkAllClients() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc.mu.RLock()
	snapshot := make([]Client, len(fc.clients))
	for i := range fc.clients {
		snapshot[i] = fc.clients[i].client
	}
	fc.mu.RUnlock()

	results := make([]bool, len(snapshot))
	for i, c := range snapshot {
		results[i] = c.Ping(ctx) == nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	now := time.Now()
	for i := range fc.clients {
		fc.clients[i].healthy = results[i]
		fc.clients[i].lastCheck = now
	}
}

// getClient 获取当前可用客户端
func (fc *FallbackClient) getClient() (int, Client) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.current < len(fc.clients) && fc.clients[fc.current].healthy {
		return fc.current, fc.clients[fc.current].client
	}

	for i, c := range fc.clients {
		if c.healthy {
			fc.current = i
			return i, c.client
		}
	}

	// 所有客户端都不健康,返回第一个
	if len(fc.clients) > 0 {
		fc.current = 0
		return 0, fc.clients[0].client
	}
	return -1, nil
}

// markUnhealthy 标记客户端不健康
func (fc *FallbackClient) markUnhealthy(i int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if i >= 0 && i < len(fc.clients) {
		fc.clients[i].healthy = false
		fc.logger.With("endpoint", fc.clients[i].name).Warn("endpoint marked unhealthy")
	}
}

// tryWithFallback 按重试策略执行，可恢复错误时切换端点
func (fc *FallbackClient) tryWithFallback(ctx context.Context, op func(Client) error) error {
	select {
	case <-fc.closeCh:
		return ErrClosed
	default:
	}

	return fc.strategy.Execute(ctx, func() error {
		i, client := fc.getClient()
		if client == nil {
			return fmt.Errorf("no available client")
		}

		err := op(client)
		if err != nil && retry.IsRecoverable(err) {
			fc.markUnhealthy(i)
		}
		return err
	})
}

// ===== Client接口实现 =====

func (fc *FallbackClient) ChainIdentifier(ctx context.Context) (string, error) {
	var result string
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.ChainIdentifier(ctx)
		return e
	})
	return result, err
}

func (fc *FallbackClient) Ping(ctx context.Context) error {
	return fc.tryWithFallback(ctx, func(c Client) error {
		return c.Ping(ctx)
	})
}

func (fc *FallbackClient) BuildPublish(ctx context.Context, sender types.Address, modules [][]byte, deps []types.ObjectID, gasBudget uint64) (*UnsignedTransaction, error) {
	var result *UnsignedTransaction
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.BuildPublish(ctx, sender, modules, deps, gasBudget)
		return e
	})
	return result, err
}

func (fc *FallbackClient) BuildMoveCall(ctx context.Context, sender types.Address, desc types.CallDescriptor, args []wire.Value) (*UnsignedTransaction, error) {
	var result *UnsignedTransaction
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.BuildMoveCall(ctx, sender, desc, args)
		return e
	})
	return result, err
}

// ExecuteTransaction 只提交一次，不重试、不切换端点
func (fc *FallbackClient) ExecuteTransaction(ctx context.Context, signed *types.SignedTransaction, opts ExecuteOptions, requestType RequestType) (*ExecuteResponse, error) {
	select {
	case <-fc.closeCh:
		return nil, ErrClosed
	default:
	}

	i, client := fc.getClient()
	if client == nil {
		return nil, fmt.Errorf("no available client")
	}
	resp, err := client.ExecuteTransaction(ctx, signed, opts, requestType)
	if err != nil && retry.IsRecoverable(err) {
		fc.markUnhealthy(i)
	}
	return resp, err
}

func (fc *FallbackClient) GetObject(ctx context.Context, id types.ObjectID, opts ObjectOptions) (*ObjectData, error) {
	var result *ObjectData
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.GetObject(ctx, id, opts)
		return e
	})
	return result, err
}

func (fc *FallbackClient) GetNormalizedMoveFunction(ctx context.Context, pkg types.ObjectID, module, function string) (*NormalizedFunction, error) {
	var result *NormalizedFunction
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.GetNormalizedMoveFunction(ctx, pkg, module, function)
		return e
	})
	return result, err
}

func (fc *FallbackClient) CallRaw(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return fc.tryWithFallback(ctx, func(c Client) error {
		return c.CallRaw(ctx, method, params, result)
	})
}

func (fc *FallbackClient) Close() error {
	var err error
	fc.closeOnce.Do(func() {
		close(fc.closeCh)

		fc.mu.Lock()
		defer fc.mu.Unlock()

		for _, c := range fc.clients {
			if e := c.client.Close(); e != nil && err == nil {
				err = e
			}
		}
	})
	return err
}

// 确保实现了Client接口
var _ Client = (*FallbackClient)(nil)
