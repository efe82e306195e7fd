package contract

import (
	"time"

	"github.com/expansion/v1/pkg/types"
)

// 默认 gas 预算（MIST）
const (
	DefaultPublishGasBudget uint64 = 20000
	DefaultCallGasBudget    uint64 = 300000
)

// UpgradeCapType 发布时产生的升级凭证类型，不计入托管状态
const UpgradeCapType = "0x2::package::UpgradeCap"

// Config 流水线配置
type Config struct {
	// Sender 显式发送者；零值表示使用签名器列出的第一个地址
	Sender types.Address

	PublishGasBudget uint64
	CallGasBudget    uint64

	// SubmissionTimeout 等待本地执行确认的客户端超时，0 表示只受 ctx 约束
	SubmissionTimeout time.Duration

	// CheckSignatures 构建前按函数签名核对参数（需要签名缓存）
	CheckSignatures bool
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		PublishGasBudget: DefaultPublishGasBudget,
		CallGasBudget:    DefaultCallGasBudget,
	}
}
