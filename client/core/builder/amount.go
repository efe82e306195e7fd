package builder

import (
	"math/big"
	"strings"

	"github.com/expansion/v1/pkg/types"
)

// Amount 表示 SUI 金额（使用最小单位 MIST）
//
// 金额系统：
//   - 1 SUI = 10^9 MIST
//   - 使用 *big.Int 确保精确计算，gas 净消耗可能为负（存储返还）
type Amount struct {
	value *big.Int
}

// 常量定义
const (
	// DecimalPlaces SUI 的小数位数
	DecimalPlaces = 9

	// MistPerSUI 1 SUI 对应的 MIST 数量
	MistPerSUI = 1_000_000_000 // 10^9
)

var mistPerSUI = big.NewInt(MistPerSUI)

// NewAmountFromUnits 从 MIST 创建Amount
func NewAmountFromUnits(units uint64) *Amount {
	return &Amount{value: new(big.Int).SetUint64(units)}
}

// GasAmount gas 净消耗（计算 + 存储 - 返还），可能为负
func GasAmount(g types.GasCostSummary) *Amount {
	return &Amount{value: big.NewInt(g.Net())}
}

// String 转换为 SUI 单位字符串（保留9位小数）
//
// 示例：
//
//	1500000000 → "1.500000000"
//	1 → "0.000000001"
//	-500 → "-0.000000500"
func (a *Amount) String() string {
	if a == nil {
		return "0." + strings.Repeat("0", DecimalPlaces)
	}

	abs := new(big.Int).Abs(a.value)
	q, r := new(big.Int).QuoRem(abs, mistPerSUI, new(big.Int))

	sign := ""
	if a.value.Sign() < 0 {
		sign = "-"
	}
	frac := r.String()
	return sign + q.String() + "." + strings.Repeat("0", DecimalPlaces-len(frac)) + frac
}

// StringTrimmed 转换为 SUI 单位字符串（移除末尾的0）
//
// 示例：
//
//	1500000000 → "1.5"
//	1000000000 → "1"
func (a *Amount) StringTrimmed() string {
	str := a.String()
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	return str
}
