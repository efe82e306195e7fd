package builder

import (
	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

// ===== Type-State 交易状态 =====
//
// DraftTx → UnsignedTx → SignedTx，每一步只能由上一状态产生。

// Shape 交易形态
type Shape string

const (
	ShapePublish Shape = "publish" // 发布模块包
	ShapeCall    Shape = "call"    // 调用模块函数
)

// DraftTx 草稿交易(可变状态)
// 可以设置发送者与 gas 预算，尚未交给节点构建
type DraftTx struct {
	shape     Shape
	sender    types.Address
	desc      types.CallDescriptor
	args      []wire.Value
	modules   [][]byte
	deps      []types.ObjectID
	gasBudget uint64
	builder   *DefaultTxBuilder
}

// UnsignedTx 未签名交易(不可变状态)
// 节点返回的规范交易字节，签名对象即其意图摘要
type UnsignedTx struct {
	shape   Shape
	sender  types.Address
	target  string
	txBytes []byte
}

// SignedTx 签名交易(可提交)
// 恰好一个发送者签名
type SignedTx struct {
	unsigned *UnsignedTx
	tx       *types.SignedTransaction
}
