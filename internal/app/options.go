package app

import (
	"github.com/expansion/v1/client/core/config"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
)

// PasswordFunc 交互式读取口令
type PasswordFunc func(prompt string) (string, error)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
type options struct {
	// profile 来源：直接给定 > 指定文件 > 配置目录中的名称
	profile     *config.Profile
	profileFile string
	profileName string
	configDir   string
	overrides   config.Overrides

	// 可替换的组件（测试与嵌入使用）
	logger logInterface.Logger
	signer wallet.Signer
	client transport.Client

	password       PasswordFunc
	compilerBinary string
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithProfile 直接使用给定 profile
func WithProfile(p *config.Profile) Option {
	return func(o *options) {
		o.profile = p
	}
}

// WithProfileFile 从文件读取 profile（.json / .yaml）
func WithProfileFile(path string) Option {
	return func(o *options) {
		o.profileFile = path
	}
}

// WithProfileName 使用配置目录中的指定 profile，空表示当前 profile
func WithProfileName(name string) Option {
	return func(o *options) {
		o.profileName = name
	}
}

// WithConfigDir 设置配置目录（默认 ~/.expansion）
func WithConfigDir(dir string) Option {
	return func(o *options) {
		o.configDir = dir
	}
}

// WithOverrides 设置命令行覆盖项
func WithOverrides(ov config.Overrides) Option {
	return func(o *options) {
		o.overrides = ov
	}
}

// WithLogger 使用外部日志器，不再按 profile 创建
func WithLogger(l logInterface.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSigner 使用外部签名器
func WithSigner(s wallet.Signer) Option {
	return func(o *options) {
		o.signer = s
	}
}

// WithClient 使用外部账本客户端
func WithClient(c transport.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithPassword 设置口令读取方式（加密 keystore 需要）
func WithPassword(fn PasswordFunc) Option {
	return func(o *options) {
		o.password = fn
	}
}

// WithCompiler 设置包编译器可执行文件（默认 sui）
func WithCompiler(binary string) Option {
	return func(o *options) {
		o.compilerBinary = binary
	}
}
