// Package config provides profile management functionality for client configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/wallet"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// ErrProfileNotFound profile 不存在
var ErrProfileNotFound = errors.New("profile not found")

// Profile CLI配置Profile
type Profile struct {
	Name    string `json:"name" yaml:"name"`                             // Profile名称: local/devnet/testnet
	ChainID string `json:"chain_id,omitempty" yaml:"chain_id,omitempty"` // 期望的链标识，空表示不校验

	// 节点端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints" yaml:"endpoints"`

	// 签名器
	Keystore KeystoreConfig `json:"keystore" yaml:"keystore"`
	Sender   string         `json:"sender,omitempty" yaml:"sender,omitempty"` // 空表示取签名器第一个地址

	// 交易默认值
	Gas GasConfig `json:"gas" yaml:"gas"`

	// 网络配置
	Timeout           Duration    `json:"timeout" yaml:"timeout"`                       // 单次请求超时
	SubmissionTimeout Duration    `json:"submission_timeout" yaml:"submission_timeout"` // 提交等待上限，0 表示只受 ctx 约束
	Retry             RetryConfig `json:"retry" yaml:"retry"`

	// 故障转移
	HealthCheckInterval Duration `json:"health_check_interval" yaml:"health_check_interval"`

	SignatureCache SignatureCacheConfig `json:"signature_cache" yaml:"signature_cache"`

	Log *types.UserLogConfig `json:"log,omitempty" yaml:"log,omitempty"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name" yaml:"name"`         // 端点名称
	Priority int    `json:"priority" yaml:"priority"` // 优先级(数字越小越优先)

	// 协议端点
	JSONRPC string `json:"jsonrpc,omitempty" yaml:"jsonrpc,omitempty"` // JSON-RPC地址
	WS      string `json:"ws,omitempty" yaml:"ws,omitempty"`           // WebSocket地址
}

// KeystoreConfig 签名器配置
type KeystoreConfig struct {
	Kind     string `json:"kind" yaml:"kind"` // file | encrypted | mnemonic
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Accounts uint32 `json:"accounts,omitempty" yaml:"accounts,omitempty"` // mnemonic 连续派生的地址数
	// DerivationPath mnemonic 起始派生路径，如 m/54'/784'/1'/0/0；为空取默认路径
	DerivationPath string `json:"derivation_path,omitempty" yaml:"derivation_path,omitempty"`
}

// GasConfig gas 预算
type GasConfig struct {
	PublishBudget uint64 `json:"publish_budget" yaml:"publish_budget"`
	CallBudget    uint64 `json:"call_budget" yaml:"call_budget"`
}

// 重试策略
const (
	RetryNone        = "none"
	RetryExponential = "exponential"
)

// RetryConfig 构建与查询调用的重试策略
type RetryConfig struct {
	Policy       string   `json:"policy" yaml:"policy"` // none | exponential
	Attempts     int      `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	MaxDelay     Duration `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
}

// SignatureCacheConfig 函数签名缓存
type SignatureCacheConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	SizeMB     int      `json:"size_mb,omitempty" yaml:"size_mb,omitempty"`
	LifeWindow Duration `json:"life_window,omitempty" yaml:"life_window,omitempty"`
}

// Duration 时间duration(支持JSON/YAML文本形式)
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Std 转为 time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ProfileManager Profile管理器
type ProfileManager struct {
	configDir      string
	currentProfile string
	profiles       map[string]*Profile
	files          map[string]string // profile 名 -> 文件路径
	logger         logInterface.Logger
}

// DefaultConfigDir ~/.expansion
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".expansion"), nil
}

// NewProfileManager 创建Profile管理器
func NewProfileManager(configDir string, logger logInterface.Logger) (*ProfileManager, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	// 确保配置目录存在
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	pm := &ProfileManager{
		configDir: configDir,
		profiles:  make(map[string]*Profile),
		files:     make(map[string]string),
		logger:    infralog.NewModuleLogger(logger, "config"),
	}

	if err := pm.loadProfiles(); err != nil {
		return nil, err
	}

	if err := pm.loadCurrentProfile(); err != nil {
		// 没有当前profile时使用local
		pm.currentProfile = "local"
	}

	return pm, nil
}

// ConfigDir 配置目录
func (pm *ProfileManager) ConfigDir() string {
	return pm.configDir
}

// loadProfiles 加载所有profiles
func (pm *ProfileManager) loadProfiles() error {
	profilesDir := filepath.Join(pm.configDir, "profiles")

	// profiles目录不存在时写入默认profiles
	if _, err := os.Stat(profilesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(profilesDir, 0700); err != nil {
			return fmt.Errorf("create profiles dir: %w", err)
		}
		if err := pm.createDefaultProfiles(); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return fmt.Errorf("read profiles dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}

		profilePath := filepath.Join(profilesDir, entry.Name())
		profile, err := LoadProfileFile(profilePath)
		if err != nil {
			// 记录错误但继续
			pm.logger.With("file", entry.Name(), "error", err.Error()).Warn("skip unreadable profile")
			continue
		}

		pm.profiles[profile.Name] = profile
		pm.files[profile.Name] = profilePath
	}

	return nil
}

// LoadProfileFile 读取单个 profile 文件（.json / .yaml / .yml）并填充默认值
func LoadProfileFile(filePath string) (*Profile, error) {
	//nolint:gosec // G304: filePath 来自配置目录或命令行
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if filepath.Ext(filePath) == ".json" {
		err = json.Unmarshal(data, &profile)
	} else {
		err = yaml.Unmarshal(data, &profile)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}

	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	profile.applyDefaults()
	return &profile, nil
}

// applyDefaults 填充缺省字段
func (p *Profile) applyDefaults() {
	if p.Keystore.Kind == "" {
		p.Keystore.Kind = "file"
	}
	if p.Keystore.Path == "" && p.Keystore.Kind == "file" {
		p.Keystore.Path = wallet.DefaultKeystorePath()
	}
	if p.Keystore.Accounts == 0 {
		p.Keystore.Accounts = 1
	}

	if p.Gas.PublishBudget == 0 {
		p.Gas.PublishBudget = contract.DefaultPublishGasBudget
	}
	if p.Gas.CallBudget == 0 {
		p.Gas.CallBudget = contract.DefaultCallGasBudget
	}

	if p.Timeout == 0 {
		p.Timeout = Duration(30 * time.Second)
	}
	if p.Retry.Policy == "" {
		p.Retry.Policy = RetryNone
	}
	if p.Retry.Attempts == 0 {
		p.Retry.Attempts = 3
	}
	if p.Retry.InitialDelay == 0 {
		p.Retry.InitialDelay = Duration(500 * time.Millisecond)
	}
	if p.Retry.MaxDelay == 0 {
		p.Retry.MaxDelay = Duration(5 * time.Second)
	}

	if p.SignatureCache.SizeMB == 0 {
		p.SignatureCache.SizeMB = 8
	}
	if p.SignatureCache.LifeWindow == 0 {
		p.SignatureCache.LifeWindow = Duration(10 * time.Minute)
	}
}

// loadCurrentProfile 加载当前profile
func (pm *ProfileManager) loadCurrentProfile() error {
	currentFile := filepath.Join(pm.configDir, "current")
	//nolint:gosec // G304: currentFile 来自配置目录
	data, err := os.ReadFile(currentFile)
	if err != nil {
		return err
	}

	pm.currentProfile = strings.TrimSpace(string(data))
	return nil
}

// saveCurrentProfile 保存当前profile
func (pm *ProfileManager) saveCurrentProfile() error {
	currentFile := filepath.Join(pm.configDir, "current")
	return os.WriteFile(currentFile, []byte(pm.currentProfile), 0600)
}

// DefaultProfiles 内置 profile：local / devnet / testnet
func DefaultProfiles() []*Profile {
	profiles := []*Profile{
		{
			Name: "local",
			Endpoints: []EndpointConfig{
				{Name: "local-node", Priority: 1, JSONRPC: "http://127.0.0.1:9000"},
			},
			HealthCheckInterval: Duration(30 * time.Second),
		},
		{
			Name: "devnet",
			Endpoints: []EndpointConfig{
				{Name: "devnet-fullnode", Priority: 1, JSONRPC: "https://fullnode.devnet.sui.io:443"},
			},
			SubmissionTimeout:   Duration(60 * time.Second),
			Retry:               RetryConfig{Policy: RetryExponential},
			HealthCheckInterval: Duration(60 * time.Second),
			SignatureCache:      SignatureCacheConfig{Enabled: true},
		},
		{
			Name: "testnet",
			Endpoints: []EndpointConfig{
				{Name: "testnet-fullnode", Priority: 1, JSONRPC: "https://fullnode.testnet.sui.io:443"},
			},
			Timeout:             Duration(60 * time.Second),
			SubmissionTimeout:   Duration(120 * time.Second),
			Retry:               RetryConfig{Policy: RetryExponential, Attempts: 5, InitialDelay: Duration(time.Second)},
			HealthCheckInterval: Duration(60 * time.Second),
			SignatureCache:      SignatureCacheConfig{Enabled: true},
		},
	}
	for _, p := range profiles {
		p.applyDefaults()
	}
	return profiles
}

// createDefaultProfiles 创建默认profiles
func (pm *ProfileManager) createDefaultProfiles() error {
	for _, profile := range DefaultProfiles() {
		if err := pm.SaveProfile(profile); err != nil {
			return err
		}
	}

	// 设置local为当前profile
	pm.currentProfile = "local"
	return pm.saveCurrentProfile()
}

// GetProfile 获取指定profile
func (pm *ProfileManager) GetProfile(name string) (*Profile, error) {
	profile, exists := pm.profiles[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return profile, nil
}

// GetCurrentProfile 获取当前profile
func (pm *ProfileManager) GetCurrentProfile() (*Profile, error) {
	return pm.GetProfile(pm.currentProfile)
}

// CurrentName 当前profile名
func (pm *ProfileManager) CurrentName() string {
	return pm.currentProfile
}

// ListProfiles 按名称排序列出所有profiles
func (pm *ProfileManager) ListProfiles() []string {
	names := make([]string, 0, len(pm.profiles))
	for name := range pm.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SaveProfile 保存profile
//
// 已存在的 profile 保持原文件格式，新 profile 写为 yaml。
func (pm *ProfileManager) SaveProfile(profile *Profile) error {
	if profile.Name == "" {
		return errors.New("profile name is required")
	}
	profile.applyDefaults()

	profilePath, ok := pm.files[profile.Name]
	if !ok {
		profilePath = filepath.Join(pm.configDir, "profiles", profile.Name+".yaml")
	}

	var (
		data []byte
		err  error
	)
	if filepath.Ext(profilePath) == ".json" {
		data, err = json.MarshalIndent(profile, "", "  ")
	} else {
		data, err = yaml.Marshal(profile)
	}
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := os.WriteFile(profilePath, data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	pm.profiles[profile.Name] = profile
	pm.files[profile.Name] = profilePath
	return nil
}

// SwitchProfile 切换profile
func (pm *ProfileManager) SwitchProfile(name string) error {
	if _, exists := pm.profiles[name]; !exists {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	pm.currentProfile = name
	return pm.saveCurrentProfile()
}

// DeleteProfile 删除profile
func (pm *ProfileManager) DeleteProfile(name string) error {
	// 不能删除当前profile
	if name == pm.currentProfile {
		return fmt.Errorf("cannot delete current profile")
	}

	if profilePath, ok := pm.files[name]; ok {
		if err := os.Remove(profilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete profile file: %w", err)
		}
	}

	delete(pm.profiles, name)
	delete(pm.files, name)
	return nil
}

// isProfileFile 检查是否是profile文件
func isProfileFile(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
