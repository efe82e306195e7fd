// Package app 组装客户端运行所需的全部组件
package app

import (
	"context"
	"time"

	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/expansion"
	"github.com/expansion/v1/client/core/metrics"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// stopTimeout 停止应用的等待上限
const stopTimeout = 10 * time.Second

// App 已启动的客户端应用
type App struct {
	Profile   *config.Profile
	Logger    logInterface.Logger
	Signer    wallet.Signer
	Client    transport.Client
	Metrics   *metrics.Metrics
	Contract  *contract.Service
	Expansion *expansion.Service

	bootstrap *Bootstrap
}

// Start 组装并启动应用
func Start(ctx context.Context, appOptions ...Option) (*App, error) {
	a := &App{bootstrap: NewBootstrap(newOptions(appOptions...))}

	a.bootstrap.BuildApp(
		&a.Profile,
		&a.Logger,
		&a.Signer,
		&a.Client,
		&a.Metrics,
		&a.Contract,
		&a.Expansion,
	)
	if err := a.bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}

	a.Logger.With("profile", a.Profile.Name, "endpoints", len(a.Profile.Endpoints)).Debug("app started")
	return a, nil
}

// LoadProfile 只解析 profile（含覆盖项），不创建其他组件
func LoadProfile(appOptions ...Option) (*config.Profile, error) {
	return provideProfile(newOptions(appOptions...))
}

// Stop 停止应用：关闭账本连接并刷新日志
func (a *App) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}
