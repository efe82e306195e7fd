package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/expansion/v1/client/core/abi"
	"github.com/expansion/v1/client/core/bundle"
	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/expansion"
	"github.com/expansion/v1/client/core/metrics"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	logconfig "github.com/expansion/v1/internal/config/log"
	log "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 配置与日志
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	opts := []fx.Option{
		fx.Supply(b.opts),
		fx.Provide(provideProfile),
	}
	if b.opts.logger != nil {
		opts = append(opts, fx.Provide(func() logInterface.Logger { return b.opts.logger }))
	} else {
		opts = append(opts,
			fx.Provide(provideLogOptions),
			log.Module(),
		)
	}
	return opts
}

// SetupCommunicationLayer 签名器与账本连接
func (b *Bootstrap) SetupCommunicationLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(provideSigner),
		fx.Provide(provideClient),
	}
}

// SetupBusinessLayer 流水线与应用服务
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(metrics.New),
		fx.Provide(provideSignatureCache),
		fx.Provide(provideContractService),
		fx.Provide(provideExpansionService),
	}
}

// BuildApp 组装 fx 应用，targets 为 fx.Populate 的目标
func (b *Bootstrap) BuildApp(targets ...interface{}) *fx.App {
	appOptions := []fx.Option{fx.NopLogger}
	appOptions = append(appOptions, b.SetupInfrastructureLayer()...)
	appOptions = append(appOptions, b.SetupCommunicationLayer()...)
	appOptions = append(appOptions, b.SetupBusinessLayer()...)
	appOptions = append(appOptions, fx.Populate(targets...))

	b.fxApp = fx.New(appOptions...)
	return b.fxApp
}

// StartApp 启动应用
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Err(); err != nil {
		return err
	}
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("start app: %w", err)
	}
	return nil
}

// StopApp 停止应用
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("stop app: %w", err)
	}
	return nil
}

// ===== 提供者 =====

// provideProfile 解析 profile 并应用命令行覆盖项
func provideProfile(o *options) (*config.Profile, error) {
	var (
		p   *config.Profile
		err error
	)
	switch {
	case o.profile != nil:
		p = o.profile
	case o.profileFile != "":
		p, err = config.LoadProfileFile(o.profileFile)
	default:
		var pm *config.ProfileManager
		pm, err = config.NewProfileManager(o.configDir, o.logger)
		if err != nil {
			return nil, err
		}
		if o.profileName != "" {
			p, err = pm.GetProfile(o.profileName)
		} else {
			p, err = pm.GetCurrentProfile()
		}
	}
	if err != nil {
		return nil, err
	}
	return p.Apply(o.overrides), nil
}

func provideLogOptions(p *config.Profile) *logconfig.LogOptions {
	return p.LogConfig().GetOptions()
}

func provideSigner(o *options, p *config.Profile) (wallet.Signer, error) {
	if o.signer != nil {
		return o.signer, nil
	}
	return OpenSigner(p.Keystore, o.password)
}

// provideClient 创建账本客户端；配置了链标识时启动阶段校验
func provideClient(lc fx.Lifecycle, o *options, p *config.Profile, logger logInterface.Logger) (transport.Client, error) {
	client := o.client
	if client == nil {
		fc, err := transport.NewFallbackClient(context.Background(), p.ClientConfig(), logger)
		if err != nil {
			return nil, err
		}
		client = fc
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.ChainID == "" {
				return nil
			}
			id, err := client.ChainIdentifier(ctx)
			if err != nil {
				return fmt.Errorf("query chain identifier: %w", err)
			}
			if id != p.ChainID {
				return fmt.Errorf("profile %s expects chain %s, endpoint reports %s", p.Name, p.ChainID, id)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// provideSignatureCache 未启用时返回 nil
func provideSignatureCache(lc fx.Lifecycle, p *config.Profile, client transport.Client, logger logInterface.Logger) (*abi.Cache, error) {
	if !p.SignatureCache.Enabled {
		return nil, nil
	}
	cache, err := abi.NewCache(p.CacheConfig(), client, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	return cache, nil
}

type contractParams struct {
	fx.In

	Profile *config.Profile
	Client  transport.Client
	Signer  wallet.Signer
	Logger  logInterface.Logger
	Metrics *metrics.Metrics
	Cache   *abi.Cache
}

func provideContractService(params contractParams) (*contract.Service, error) {
	cfg, err := params.Profile.ContractConfig()
	if err != nil {
		return nil, err
	}
	opts := []contract.Option{contract.WithMetrics(params.Metrics)}
	if params.Cache != nil {
		opts = append(opts, contract.WithSignatureCache(params.Cache))
	}
	return contract.NewService(params.Client, params.Signer, cfg, params.Logger, opts...), nil
}

func provideExpansionService(o *options, svc *contract.Service, logger logInterface.Logger) *expansion.Service {
	return expansion.NewService(svc, bundle.NewCompiler(o.compilerBinary, logger), logger)
}
