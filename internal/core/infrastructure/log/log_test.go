package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logconfig "github.com/expansion/v1/internal/config/log"
	"github.com/expansion/v1/pkg/types"
)

// captureOutput 捕获控制台输出
func captureOutput(format string, f func()) string {
	var buf bytes.Buffer

	mu.Lock()
	oldWriter := consoleWriter
	consoleWriter = &buf
	oldLogger := globalLogger
	mu.Unlock()

	logger, _ := New(logconfig.New(&logconfig.LogOptions{
		Level:         InfoLevel,
		ToConsole:     true,
		ConsoleFormat: format,
	}))
	SetLogger(logger)

	f()
	_ = logger.Sync()

	mu.Lock()
	consoleWriter = oldWriter
	mu.Unlock()
	SetLogger(oldLogger)

	return buf.String()
}

// TestInfoLog 测试信息级别日志
func TestInfoLog(t *testing.T) {
	output := captureOutput("console", func() {
		GetLogger().Info("测试信息日志")
	})

	if !strings.Contains(output, "测试信息日志") {
		t.Error("日志输出中应包含消息内容")
	}
	if !strings.Contains(output, "INFO") {
		t.Error("日志输出中应包含正确的日志级别")
	}
}

// TestStructuredLogging 测试结构化日志
func TestStructuredLogging(t *testing.T) {
	output := captureOutput("json", func() {
		GetLogger().With("module", "contract", "stage", "signing", "attempt", 42).Info("结构化日志测试")
	})

	var logEntry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &logEntry); err != nil {
		t.Fatalf("JSON 日志解析失败: %v, 输出: %s", err, output)
	}

	if logEntry["module"] != "contract" {
		t.Errorf("module 字段不正确: %v", logEntry["module"])
	}
	if logEntry["stage"] != "signing" {
		t.Errorf("stage 字段不正确: %v", logEntry["stage"])
	}
	if int(logEntry["attempt"].(float64)) != 42 {
		t.Errorf("attempt 字段不正确: %v", logEntry["attempt"])
	}
	if logEntry["message"] != "结构化日志测试" {
		t.Errorf("message 字段不正确: %v", logEntry["message"])
	}
}

// TestLevelFiltering 低于配置级别的日志被丢弃
func TestLevelFiltering(t *testing.T) {
	output := captureOutput("console", func() {
		GetLogger().Debug("不应出现")
		GetLogger().Warn("应当出现")
	})

	if strings.Contains(output, "不应出现") {
		t.Error("debug 日志不应在 info 级别输出")
	}
	if !strings.Contains(output, "应当出现") {
		t.Error("warn 日志应输出")
	}
}

// TestFileLog 测试文件输出
func TestFileLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "client.log")

	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:     DebugLevel,
		FilePath:  logPath,
		ToConsole: false,
		MaxSize:   1,
	}))
	if err != nil {
		t.Fatalf("创建日志记录器失败: %v", err)
	}

	logger.Debug("调试日志")
	logger.Error("错误日志")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("无法读取日志文件: %v", err)
	}
	for _, want := range []string{"调试日志", "错误日志", `"level":"error"`} {
		if !strings.Contains(string(content), want) {
			t.Errorf("日志文件中应包含 %s", want)
		}
	}
}

// TestMultiFileRouting 多文件模式按 module 分流
func TestMultiFileRouting(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:           InfoLevel,
		FilePath:        filepath.Join(dir, "client.log"),
		EnableMultiFile: true,
		MaxSize:         1,
	}))
	if err != nil {
		t.Fatalf("创建日志记录器失败: %v", err)
	}

	logger.With("module", "transport").Info("rpc 调用")
	logger.With("module", "contract").Info("管道阶段")
	_ = logger.Sync()

	system, _ := os.ReadFile(filepath.Join(dir, "client-system.log"))
	business, _ := os.ReadFile(filepath.Join(dir, "client-business.log"))

	if !strings.Contains(string(system), "rpc 调用") || strings.Contains(string(system), "管道阶段") {
		t.Errorf("system 日志内容不正确: %s", system)
	}
	if !strings.Contains(string(business), "管道阶段") || strings.Contains(string(business), "rpc 调用") {
		t.Errorf("business 日志内容不正确: %s", business)
	}
}

// TestUserLogConfigOverride 用户配置按字段覆盖默认值
func TestUserLogConfigOverride(t *testing.T) {
	level := "debug"
	path := "/tmp/expansion.log"
	cfg := logconfig.New(&types.UserLogConfig{Level: &level, FilePath: &path})

	if cfg.GetLevel() != "debug" {
		t.Errorf("级别应为 debug，实际 %s", cfg.GetLevel())
	}
	if cfg.IsConsoleEnabled() {
		t.Error("指定文件路径后默认不输出到控制台")
	}
	if cfg.GetMaxBackups() == 0 {
		t.Error("未覆盖的字段应保留默认值")
	}
}

// TestSetLogger 测试设置和切换全局日志记录器
func TestSetLogger(t *testing.T) {
	originalLogger := GetLogger()
	defer SetLogger(originalLogger)

	logger1 := NewNop()
	logger2 := NewNop()

	SetLogger(logger1)
	if GetLogger() != logger1 {
		t.Error("SetLogger应将全局日志记录器设置为logger1")
	}

	SetLogger(logger2)
	if GetLogger() != logger2 {
		t.Error("SetLogger应将全局日志记录器设置为logger2")
	}

	SetLogger(nil)
	if GetLogger() != logger2 {
		t.Error("SetLogger(nil) 不应替换现有记录器")
	}
}

// TestResetDefault 测试重置默认日志记录器
func TestResetDefault(t *testing.T) {
	originalLogger := GetLogger()
	defer SetLogger(originalLogger)

	customLogger := NewNop()
	SetLogger(customLogger)
	ResetDefault()

	if GetLogger() == customLogger {
		t.Error("ResetDefault应该将全局日志记录器重置为默认配置")
	}
}

// TestNewModuleLogger 空基础记录器返回空实现
func TestNewModuleLogger(t *testing.T) {
	if NewModuleLogger(nil, "contract") == nil {
		t.Error("NewModuleLogger(nil) 不应返回 nil")
	}
}
