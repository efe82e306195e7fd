// Package bundle 加载待发布的 Move 模块包
//
// 来源可以是包目录（调用编译器）、已编译的 .mv 目录，或编译器输出的 JSON 文件。
package bundle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

var (
	// ErrEmptyBundle 没有任何模块
	ErrEmptyBundle = errors.New("bundle contains no modules")

	// ErrUnknownSource 无法识别的来源
	ErrUnknownSource = errors.New("unrecognised bundle source")
)

// DefaultDependencies 未声明依赖时使用的框架包
var DefaultDependencies = []string{"0x1", "0x2"}

// manifestName 包清单文件名
const manifestName = "Move.toml"

// Bundle 已编译的模块包
type Bundle struct {
	Modules      [][]byte
	Dependencies []types.ObjectID
	Source       string // 来源路径
}

// bundleJSON 编译器 --dump-bytecode-as-base64 输出
type bundleJSON struct {
	Modules      []string `json:"modules"`
	Dependencies []string `json:"dependencies"`
	Digest       []int    `json:"digest,omitempty"`
}

// Size 模块字节总数
func (b *Bundle) Size() int {
	n := 0
	for _, m := range b.Modules {
		n += len(m)
	}
	return n
}

// Compiler 包编译器
type Compiler struct {
	Binary string   // 编译器可执行文件，默认 sui
	Args   []string // 额外参数
	logger logInterface.Logger
}

// NewCompiler 创建编译器
func NewCompiler(binary string, logger logInterface.Logger) *Compiler {
	if binary == "" {
		binary = "sui"
	}
	return &Compiler{Binary: binary, logger: infralog.NewModuleLogger(logger, "bundle")}
}

// Build 编译包目录
func (c *Compiler) Build(ctx context.Context, packagePath string) (*Bundle, error) {
	args := append([]string{"move", "build", "--dump-bytecode-as-base64", "--path", packagePath}, c.Args...)
	cmd := exec.CommandContext(ctx, c.Binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.With("binary", c.Binary, "path", packagePath).Debug("compile package")
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("compile %s: %w: %s", packagePath, err, msg)
		}
		return nil, fmt.Errorf("compile %s: %w", packagePath, err)
	}

	// 编译器会先打印构建日志，JSON 在最后一个非空行
	out := lastJSONLine(stdout.Bytes())
	if out == nil {
		return nil, fmt.Errorf("compile %s: no bundle in compiler output", packagePath)
	}
	b, err := Parse(out)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", packagePath, err)
	}
	b.Source = packagePath
	return b, nil
}

// Load 按路径类型加载
func (c *Compiler) Load(ctx context.Context, path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat bundle source: %w", err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read bundle: %w", err)
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b.Source = path
		return b, nil
	}

	if _, err := os.Stat(filepath.Join(path, manifestName)); err == nil {
		return c.Build(ctx, path)
	}
	return LoadModules(path)
}

// Parse 解析编译器 JSON 输出
func Parse(data []byte) (*Bundle, error) {
	var raw bundleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if len(raw.Modules) == 0 {
		return nil, ErrEmptyBundle
	}

	b := &Bundle{Modules: make([][]byte, len(raw.Modules))}
	for i, m := range raw.Modules {
		mod, err := base64.StdEncoding.DecodeString(m)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
		b.Modules[i] = mod
	}

	deps, err := parseDependencies(raw.Dependencies)
	if err != nil {
		return nil, err
	}
	b.Dependencies = deps
	return b, nil
}

// LoadModules 读取目录下的 .mv 文件（按文件名排序）
func LoadModules(dir string) (*Bundle, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mv"))
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, dir)
	}
	sort.Strings(matches)

	b := &Bundle{Source: dir, Modules: make([][]byte, 0, len(matches))}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("read module %s: %w", filepath.Base(m), err)
		}
		b.Modules = append(b.Modules, data)
	}

	deps, err := parseDependencies(nil)
	if err != nil {
		return nil, err
	}
	b.Dependencies = deps
	return b, nil
}

func parseDependencies(raw []string) ([]types.ObjectID, error) {
	if len(raw) == 0 {
		raw = DefaultDependencies
	}
	deps := make([]types.ObjectID, len(raw))
	for i, d := range raw {
		id, err := types.ParseObjectID(d)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", d, err)
		}
		deps[i] = id
	}
	return deps, nil
}

func lastJSONLine(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return nil
}
