// Package builder 以类型状态构建发布与调用交易。
package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/expansion/v1/client/core/bundle"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/client/core/wire"
	"github.com/expansion/v1/pkg/types"
)

// ErrSenderRequired 草稿未设置发送者
var ErrSenderRequired = errors.New("sender address required")

// TxBuilder 交易构建器接口 - Type-State模式的入口
type TxBuilder interface {
	// CreateCall 创建函数调用草稿
	CreateCall(desc types.CallDescriptor, args []wire.Value) *DraftTx

	// CreatePublish 创建发布草稿
	CreatePublish(modules [][]byte, deps []types.ObjectID) *DraftTx
}

// DefaultTxBuilder 默认交易构建器实现
type DefaultTxBuilder struct {
	client transport.Client
}

// NewTxBuilder 创建交易构建器
func NewTxBuilder(client transport.Client) *DefaultTxBuilder {
	return &DefaultTxBuilder{
		client: client,
	}
}

// CreateCall 创建函数调用草稿，gas 预算取自描述符
func (b *DefaultTxBuilder) CreateCall(desc types.CallDescriptor, args []wire.Value) *DraftTx {
	return &DraftTx{
		shape:     ShapeCall,
		desc:      desc,
		args:      args,
		gasBudget: desc.GasBudget,
		builder:   b,
	}
}

// CreatePublish 创建发布草稿
func (b *DefaultTxBuilder) CreatePublish(modules [][]byte, deps []types.ObjectID) *DraftTx {
	return &DraftTx{
		shape:   ShapePublish,
		modules: modules,
		deps:    deps,
		builder: b,
	}
}

// ===== DraftTx =====

// WithSender 设置发送者
func (d *DraftTx) WithSender(sender types.Address) *DraftTx {
	d.sender = sender
	return d
}

// WithGasBudget 设置 gas 预算；0 保持原值
func (d *DraftTx) WithGasBudget(budget uint64) *DraftTx {
	if budget > 0 {
		d.gasBudget = budget
	}
	return d
}

// Shape 交易形态
func (d *DraftTx) Shape() Shape {
	return d.shape
}

// GasBudget 当前 gas 预算
func (d *DraftTx) GasBudget() uint64 {
	return d.gasBudget
}

// Seal 交给节点构建规范交易字节
func (d *DraftTx) Seal(ctx context.Context) (*UnsignedTx, error) {
	if d.sender.IsZero() {
		return nil, ErrSenderRequired
	}

	var (
		unsigned *transport.UnsignedTransaction
		err      error
		target   string
	)
	switch d.shape {
	case ShapePublish:
		if len(d.modules) == 0 {
			return nil, bundle.ErrEmptyBundle
		}
		unsigned, err = d.builder.client.BuildPublish(ctx, d.sender, d.modules, d.deps, d.gasBudget)
	case ShapeCall:
		desc := d.desc
		desc.GasBudget = d.gasBudget
		target = desc.Target()
		unsigned, err = d.builder.client.BuildMoveCall(ctx, d.sender, desc, d.args)
	default:
		return nil, fmt.Errorf("unknown transaction shape %q", d.shape)
	}
	if err != nil {
		return nil, err
	}

	return &UnsignedTx{
		shape:   d.shape,
		sender:  d.sender,
		target:  target,
		txBytes: unsigned.TxBytes,
	}, nil
}

// ===== UnsignedTx =====

// Shape 交易形态
func (u *UnsignedTx) Shape() Shape { return u.shape }

// Sender 发送者
func (u *UnsignedTx) Sender() types.Address { return u.sender }

// Target 调用目标（发布时为空）
func (u *UnsignedTx) Target() string { return u.target }

// TxBytes 规范交易字节副本
func (u *UnsignedTx) TxBytes() []byte {
	out := make([]byte, len(u.txBytes))
	copy(out, u.txBytes)
	return out
}

// Digest 交易摘要
func (u *UnsignedTx) Digest() types.Digest {
	return types.TransactionDigest(u.txBytes)
}

// Sign 由签名器对意图摘要签名，并校验签名确实来自发送者
func (u *UnsignedTx) Sign(signer wallet.Signer) (*SignedTx, error) {
	digest := types.IntentDigest(u.txBytes)
	sig, err := signer.Sign(u.sender, digest[:])
	if err != nil {
		return nil, err
	}

	tx := &types.SignedTransaction{
		Sender:     u.sender,
		TxBytes:    u.TxBytes(),
		Signatures: []types.Signature{sig},
	}
	if err := tx.VerifySender(); err != nil {
		return nil, err
	}
	return &SignedTx{unsigned: u, tx: tx}, nil
}

// ===== SignedTx =====

// Transaction 提交用的已签名交易
func (s *SignedTx) Transaction() *types.SignedTransaction { return s.tx }

// Shape 交易形态
func (s *SignedTx) Shape() Shape { return s.unsigned.shape }

// Digest 交易摘要
func (s *SignedTx) Digest() types.Digest { return s.tx.Digest() }

// ===== 确保实现了接口 =====

var _ TxBuilder = (*DefaultTxBuilder)(nil)
