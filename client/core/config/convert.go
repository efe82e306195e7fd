package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/expansion/v1/client/core/abi"
	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/transport/retry"
	logconfig "github.com/expansion/v1/internal/config/log"
	"github.com/expansion/v1/pkg/types"
)

// Overrides 命令行覆盖项，零值表示沿用 profile
type Overrides struct {
	RPCServerURL      string
	KeystorePath      string
	Sender            string
	GasBudget         uint64 // 同时覆盖 publish 与 call 预算
	SubmissionTimeout time.Duration
	LogLevel          string
}

// Apply 返回应用覆盖项后的副本
func (p *Profile) Apply(o Overrides) *Profile {
	out := *p
	out.Endpoints = append([]EndpointConfig(nil), p.Endpoints...)

	if o.RPCServerURL != "" {
		ep := EndpointConfig{Name: "cli", Priority: 0}
		if strings.HasPrefix(o.RPCServerURL, "ws://") || strings.HasPrefix(o.RPCServerURL, "wss://") {
			ep.WS = o.RPCServerURL
		} else {
			ep.JSONRPC = o.RPCServerURL
		}
		out.Endpoints = []EndpointConfig{ep}
	}
	if o.KeystorePath != "" {
		out.Keystore.Path = o.KeystorePath
	}
	if o.Sender != "" {
		out.Sender = o.Sender
	}
	if o.GasBudget != 0 {
		out.Gas.PublishBudget = o.GasBudget
		out.Gas.CallBudget = o.GasBudget
	}
	if o.SubmissionTimeout != 0 {
		out.SubmissionTimeout = Duration(o.SubmissionTimeout)
	}
	if o.LogLevel != "" {
		logCfg := types.UserLogConfig{}
		if p.Log != nil {
			logCfg = *p.Log
		}
		level := o.LogLevel
		logCfg.Level = &level
		out.Log = &logCfg
	}
	return &out
}

// ClientConfig 生成传输层配置
func (p *Profile) ClientConfig() transport.ClientConfig {
	endpoints := make([]transport.EndpointConfig, len(p.Endpoints))
	for i, ep := range p.Endpoints {
		endpoints[i] = transport.EndpointConfig{
			Name:     ep.Name,
			Priority: ep.Priority,
			JSONRPC:  ep.JSONRPC,
			WS:       ep.WS,
		}
	}

	rc := retry.DefaultConfig()
	if p.Retry.Policy == RetryExponential {
		rc.Enabled = true
		rc.MaxRetries = p.Retry.Attempts
		rc.InitialDelay = p.Retry.InitialDelay.Std()
		rc.MaxDelay = p.Retry.MaxDelay.Std()
	}

	return transport.ClientConfig{
		Endpoints:           endpoints,
		Timeout:             p.Timeout.Std(),
		Retry:               rc,
		HealthCheckInterval: p.HealthCheckInterval.Std(),
	}
}

// ContractConfig 生成流水线配置
func (p *Profile) ContractConfig() (contract.Config, error) {
	cfg := contract.DefaultConfig()
	if p.Sender != "" {
		sender, err := types.ParseAddress(p.Sender)
		if err != nil {
			return cfg, fmt.Errorf("profile %s: sender: %w", p.Name, err)
		}
		cfg.Sender = sender
	}
	cfg.PublishGasBudget = p.Gas.PublishBudget
	cfg.CallGasBudget = p.Gas.CallBudget
	cfg.SubmissionTimeout = p.SubmissionTimeout.Std()
	cfg.CheckSignatures = p.SignatureCache.Enabled
	return cfg, nil
}

// CacheConfig 生成签名缓存配置
func (p *Profile) CacheConfig() abi.Config {
	cfg := abi.DefaultConfig()
	cfg.HardMaxCacheSizeMB = p.SignatureCache.SizeMB
	if lw := p.SignatureCache.LifeWindow.Std(); lw > 0 {
		cfg.LifeWindow = lw
		cfg.CleanWindow = lw / 2
	}
	return cfg
}

// LogConfig 生成日志配置
func (p *Profile) LogConfig() *logconfig.Config {
	if p.Log == nil {
		return logconfig.New(nil)
	}
	return logconfig.New(p.Log)
}
