package log

import (
	"os"
	"path/filepath"

	configtypes "github.com/expansion/v1/pkg/types"
	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项
type LogOptions struct {
	// === 基础配置 ===
	Level         string `json:"level" yaml:"level"`                   // 日志级别 (debug, info, warn, error, fatal)
	ToConsole     bool   `json:"to_console" yaml:"to_console"`         // 是否输出到控制台（stderr）
	ConsoleFormat string `json:"console_format" yaml:"console_format"` // console | json
	FilePath      string `json:"file_path" yaml:"file_path"`           // 日志文件路径，空表示不写文件

	// === 基础轮转配置 ===
	MaxSize    int  `json:"max_size" yaml:"max_size"`       // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups" yaml:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age" yaml:"max_age"`         // 日志文件最大保留天数
	Compress   bool `json:"compress" yaml:"compress"`       // 是否压缩历史日志文件

	// === 多文件配置 ===
	EnableMultiFile bool   `json:"enable_multi_file" yaml:"enable_multi_file"` // 基础设施与业务日志分文件
	SystemLogFile   string `json:"system_log_file" yaml:"system_log_file"`
	BusinessLogFile string `json:"business_log_file" yaml:"business_log_file"`

	// === 调试配置 ===
	EnableCaller     bool `json:"enable_caller" yaml:"enable_caller"`         // 是否启用调用者信息
	EnableStacktrace bool `json:"enable_stacktrace" yaml:"enable_stacktrace"` // 是否启用堆栈跟踪

	// === 内部配置（不对外暴露） ===
	LevelMap map[string]zapcore.Level `json:"-" yaml:"-"` // 级别映射
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置实现
//
// userConfig 可以是 *LogOptions（完整覆盖）或 *types.UserLogConfig（按字段覆盖）。
func New(userConfig interface{}) *Config {
	// 1. 先创建完整的默认配置
	defaultOptions := createDefaultLogOptions()

	// 2. 如果有用户配置，应用用户配置覆盖默认值
	if userConfig != nil {
		applyUserLogConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// createDefaultLogOptions 创建默认日志配置
func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:         defaultLogLevel,
		ToConsole:     defaultToConsole,
		ConsoleFormat: defaultConsoleFormat,
		FilePath:      "",

		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
		Compress:   defaultCompress,

		EnableMultiFile: defaultEnableMultiFile,
		SystemLogFile:   defaultSystemLogFile,
		BusinessLogFile: defaultBusinessLogFile,

		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,

		LevelMap: defaultLevelMap,
	}
}

// applyUserLogConfig 应用用户日志配置覆盖默认值
func applyUserLogConfig(options *LogOptions, userConfig interface{}) {
	switch cfg := userConfig.(type) {
	case *LogOptions:
		if cfg == nil {
			return
		}
		levelMap := options.LevelMap
		*options = *cfg
		if options.LevelMap == nil {
			options.LevelMap = levelMap
		}
		if options.SystemLogFile == "" {
			options.SystemLogFile = defaultSystemLogFile
		}
		if options.BusinessLogFile == "" {
			options.BusinessLogFile = defaultBusinessLogFile
		}

	case *configtypes.UserLogConfig:
		if cfg == nil {
			return
		}
		// 只处理配置文件中实际出现的字段
		if cfg.Level != nil {
			options.Level = *cfg.Level
		}
		if cfg.FilePath != nil {
			options.FilePath = *cfg.FilePath
			options.ToConsole = false // 指定文件路径时默认不输出到控制台
		}
		if cfg.ToConsole != nil {
			options.ToConsole = *cfg.ToConsole
		}
		if cfg.ConsoleFormat != nil {
			options.ConsoleFormat = *cfg.ConsoleFormat
		}
	}
}

// DefaultLogDir 默认日志目录 ~/.expansion/logs
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "logs")
	}
	return filepath.Join(home, ".expansion", "logs")
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetLevel 获取日志级别
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := c.options.LevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}

// IsConsoleEnabled 是否启用控制台输出
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize 获取单个文件最大大小(MB)
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups 获取最大备份文件数
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge 获取最大保留天数
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled 是否启用压缩
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}

// IsMultiFileEnabled 是否按模块分文件
func (c *Config) IsMultiFileEnabled() bool {
	return c.options.EnableMultiFile
}

// GetSystemLogFile 基础设施日志文件名
func (c *Config) GetSystemLogFile() string {
	return c.options.SystemLogFile
}

// GetBusinessLogFile 业务日志文件名
func (c *Config) GetBusinessLogFile() string {
	return c.options.BusinessLogFile
}

// IsCallerEnabled 是否启用调用者信息
func (c *Config) IsCallerEnabled() bool {
	return c.options.EnableCaller
}

// IsStacktraceEnabled 是否启用堆栈跟踪
func (c *Config) IsStacktraceEnabled() bool {
	return c.options.EnableStacktrace
}

// === 编码器创建方法 ===

// CreateFileEncoder 创建文件编码器（JSON）
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(jsonEncoderConfig())
}

// CreateConsoleEncoder 创建控制台编码器
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	if c.options.ConsoleFormat == "json" {
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	}
}
