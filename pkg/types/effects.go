package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// U64 以十进制字符串或数字形式出现在账本 JSON 中的 u64
type U64 uint64

// UnmarshalJSON 同时接受 "123" 与 123
func (u *U64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse u64 %q: %w", s, err)
	}
	*u = U64(v)
	return nil
}

// MarshalJSON 输出十进制字符串，与账本保持一致
func (u U64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// ExecutionStatus 执行状态
type ExecutionStatus struct {
	Status string `json:"status"`          // success | failure
	Error  string `json:"error,omitempty"` // 失败原因
}

// Succeeded 是否执行成功
func (s ExecutionStatus) Succeeded() bool {
	return s.Status == "success"
}

// GasCostSummary gas 消耗汇总
type GasCostSummary struct {
	ComputationCost         U64 `json:"computationCost"`
	StorageCost             U64 `json:"storageCost"`
	StorageRebate           U64 `json:"storageRebate"`
	NonRefundableStorageFee U64 `json:"nonRefundableStorageFee"`
}

// Net 净消耗（计算 + 存储 - 返还）
func (g GasCostSummary) Net() int64 {
	return int64(g.ComputationCost) + int64(g.StorageCost) - int64(g.StorageRebate)
}

// ObjectRef 对象引用（id, version, digest）
type ObjectRef struct {
	ObjectID ObjectID `json:"objectId"`
	Version  U64      `json:"version"`
	Digest   string   `json:"digest"`
}

// EntityReference 交易产生或触及的链上实体
type EntityReference struct {
	ObjectID   ObjectID
	Version    uint64
	Digest     string
	Owner      Owner
	ObjectType string // 仅当账本返回 objectChanges 时可用
}

// IsImmutable 是否为不可变实体
func (e EntityReference) IsImmutable() bool {
	return e.Owner.IsImmutable()
}

// entityReferenceJSON 账本 OwnedObjectRef 形式
type entityReferenceJSON struct {
	Owner     Owner     `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

// UnmarshalJSON 解析 {"owner":..,"reference":{..}}
func (e *EntityReference) UnmarshalJSON(data []byte) error {
	var raw entityReferenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse entity reference: %w", err)
	}
	*e = EntityReference{
		ObjectID: raw.Reference.ObjectID,
		Version:  uint64(raw.Reference.Version),
		Digest:   raw.Reference.Digest,
		Owner:    raw.Owner,
	}
	return nil
}

// MarshalJSON 输出账本 OwnedObjectRef 形式
func (e EntityReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(entityReferenceJSON{
		Owner: e.Owner,
		Reference: ObjectRef{
			ObjectID: e.ObjectID,
			Version:  U64(e.Version),
			Digest:   e.Digest,
		},
	})
}

// ExecutionEffects 交易执行效果
//
// 各列表保持账本返回的顺序。
type ExecutionEffects struct {
	Status            ExecutionStatus   `json:"status"`
	TransactionDigest string            `json:"transactionDigest"`
	GasUsed           GasCostSummary    `json:"gasUsed"`
	Created           []EntityReference `json:"created,omitempty"`
	Mutated           []EntityReference `json:"mutated,omitempty"`
	Deleted           []ObjectRef       `json:"deleted,omitempty"`
}

// ObjectChange 账本 objectChanges 中的单项（仅保留类型信息）
type ObjectChange struct {
	Type       string   `json:"type"` // created | mutated | published | ...
	ObjectID   ObjectID `json:"objectId"`
	ObjectType string   `json:"objectType"`
	PackageID  ObjectID `json:"packageId"`
}

// AnnotateTypes 用 objectChanges 为 created 实体补全类型
//
// published 项没有 objectId，以 packageId 匹配，类型记为 "package"。
func (fx *ExecutionEffects) AnnotateTypes(changes []ObjectChange) {
	if fx == nil || len(changes) == 0 {
		return
	}
	types := make(map[ObjectID]string, len(changes))
	for _, c := range changes {
		switch c.Type {
		case "published":
			types[c.PackageID] = "package"
		default:
			if c.ObjectType != "" {
				types[c.ObjectID] = c.ObjectType
			}
		}
	}
	for i := range fx.Created {
		if t, ok := types[fx.Created[i].ObjectID]; ok {
			fx.Created[i].ObjectType = t
		}
	}
}
