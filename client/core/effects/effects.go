// Package effects 解释交易执行效果：按所有权划分新建实体并校验数量约定。
//
// 校验失败时不返回任何实体 id，调用方不会拿到“猜测”的结果。
package effects

import (
	"errors"
	"fmt"

	"github.com/expansion/v1/pkg/types"
)

var (
	// ErrCardinalityMismatch 新建实体数量与约定不符
	ErrCardinalityMismatch = errors.New("cardinality mismatch")

	// ErrNoEffects 没有可解释的执行效果
	ErrNoEffects = errors.New("no execution effects")
)

// Class 新建实体的所有权类别
type Class int

const (
	// ClassAll 不区分类别（总数）
	ClassAll Class = iota
	// ClassImmutable 不可变实体
	ClassImmutable
	// ClassMutable 可变实体（地址所有、对象所有或共享）
	ClassMutable
)

// String 类别名称
func (c Class) String() string {
	switch c {
	case ClassImmutable:
		return "immutable"
	case ClassMutable:
		return "mutable"
	default:
		return "all"
	}
}

// CardinalityError 数量不符
type CardinalityError struct {
	Class    Class
	Expected int // 期望数量；AtLeast 为真时表示下限
	AtLeast  bool
	Actual   int
}

// Error 实现 error 接口
func (e *CardinalityError) Error() string {
	op := "exactly"
	if e.AtLeast {
		op = "at least"
	}
	return fmt.Sprintf("%v: expected %s %d %s created entities, got %d",
		ErrCardinalityMismatch, op, e.Expected, e.Class, e.Actual)
}

// Is 匹配 ErrCardinalityMismatch
func (e *CardinalityError) Is(target error) bool {
	return target == ErrCardinalityMismatch
}

// Partitioned 按类别划分的新建实体，各自保持原始顺序
type Partitioned struct {
	Immutable []types.EntityReference
	Mutable   []types.EntityReference
}

// Count 某一类别的数量
func (p Partitioned) Count(c Class) int {
	switch c {
	case ClassImmutable:
		return len(p.Immutable)
	case ClassMutable:
		return len(p.Mutable)
	default:
		return len(p.Immutable) + len(p.Mutable)
	}
}

// Partition 划分新建实体；未识别的所有权按可变处理
func Partition(created []types.EntityReference) Partitioned {
	var p Partitioned
	for _, e := range created {
		if e.IsImmutable() {
			p.Immutable = append(p.Immutable, e)
		} else {
			p.Mutable = append(p.Mutable, e)
		}
	}
	return p
}

// Rule 新建实体的数量约定
type Rule struct {
	name  string
	check func(Partitioned) *CardinalityError
}

// String 约定名称
func (r Rule) String() string {
	if r.name == "" {
		return "any"
	}
	return r.name
}

// Check 校验划分结果
func (r Rule) Check(p Partitioned) error {
	if r.check == nil {
		return nil
	}
	if cerr := r.check(p); cerr != nil {
		return cerr
	}
	return nil
}

// Any 不做数量约束
func Any() Rule {
	return Rule{name: "any"}
}

// ExactlyOne 恰好新建一个实体
func ExactlyOne() Rule {
	r := Exactly(1)
	r.name = "exactly-one"
	return r
}

// Exactly 恰好新建 n 个实体（不区分类别）
func Exactly(n int) Rule {
	return ExactlyOf(ClassAll, n)
}

// ExactlyOf 某一类别恰好 n 个
func ExactlyOf(c Class, n int) Rule {
	return Rule{
		name: fmt.Sprintf("exactly-%d-%s", n, c),
		check: func(p Partitioned) *CardinalityError {
			if got := p.Count(c); got != n {
				return &CardinalityError{Class: c, Expected: n, Actual: got}
			}
			return nil
		},
	}
}

// AtLeastOneOfEach 每个类别至少一个
func AtLeastOneOfEach() Rule {
	return Rule{
		name: "at-least-one-of-each",
		check: func(p Partitioned) *CardinalityError {
			for _, c := range []Class{ClassImmutable, ClassMutable} {
				if got := p.Count(c); got < 1 {
					return &CardinalityError{Class: c, Expected: 1, AtLeast: true, Actual: got}
				}
			}
			return nil
		},
	}
}

// OneOfEach 每个类别恰好一个
//
// 先报告空类别，再报告多余类别：{2, 0} 报告的是 mutable 缺失。
func OneOfEach() Rule {
	return Rule{
		name: "one-of-each",
		check: func(p Partitioned) *CardinalityError {
			classes := []Class{ClassImmutable, ClassMutable}
			for _, c := range classes {
				if p.Count(c) == 0 {
					return &CardinalityError{Class: c, Expected: 1, Actual: 0}
				}
			}
			for _, c := range classes {
				if got := p.Count(c); got != 1 {
					return &CardinalityError{Class: c, Expected: 1, Actual: got}
				}
			}
			return nil
		},
	}
}

// Extracted 通过校验的新建实体
type Extracted struct {
	Created   []types.EntityReference
	Immutable []types.EntityReference
	Mutable   []types.EntityReference
}

// IDs 全部新建实体 id（账本顺序）
func (x *Extracted) IDs() []types.ObjectID {
	ids := make([]types.ObjectID, len(x.Created))
	for i, e := range x.Created {
		ids[i] = e.ObjectID
	}
	return ids
}

// First 某一类别的第一个实体
func (x *Extracted) First(c Class) (types.EntityReference, bool) {
	var list []types.EntityReference
	switch c {
	case ClassImmutable:
		list = x.Immutable
	case ClassMutable:
		list = x.Mutable
	default:
		list = x.Created
	}
	if len(list) == 0 {
		return types.EntityReference{}, false
	}
	return list[0], true
}

// Only 唯一的新建实体，仅当恰好一个时可用
func (x *Extracted) Only() (types.EntityReference, error) {
	if len(x.Created) != 1 {
		return types.EntityReference{}, &CardinalityError{Class: ClassAll, Expected: 1, Actual: len(x.Created)}
	}
	return x.Created[0], nil
}

// Extract 按约定解释执行效果中的新建实体
func Extract(fx *types.ExecutionEffects, rule Rule) (*Extracted, error) {
	if fx == nil {
		return nil, ErrNoEffects
	}
	return ExtractEntities(fx.Created, rule)
}

// ExtractEntities 对给定的新建实体列表应用约定
func ExtractEntities(created []types.EntityReference, rule Rule) (*Extracted, error) {
	p := Partition(created)
	if err := rule.Check(p); err != nil {
		return nil, err
	}

	all := make([]types.EntityReference, len(created))
	copy(all, created)
	return &Extracted{
		Created:   all,
		Immutable: p.Immutable,
		Mutable:   p.Mutable,
	}, nil
}

// WithoutType 去掉指定 Move 类型的实体，保持顺序
func WithoutType(created []types.EntityReference, objectType string) []types.EntityReference {
	out := make([]types.EntityReference, 0, len(created))
	for _, e := range created {
		if e.ObjectType == objectType {
			continue
		}
		out = append(out, e)
	}
	return out
}
