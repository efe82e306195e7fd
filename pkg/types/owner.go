package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OwnershipMode 实体的所有权模式
type OwnershipMode int

const (
	// OwnershipUnknown 未识别的所有权（账本新增的所有者形式）
	OwnershipUnknown OwnershipMode = iota
	// OwnershipImmutable 不可变（已发布的包、冻结对象）
	OwnershipImmutable
	// OwnershipAddress 单一地址所有（可变）
	OwnershipAddress
	// OwnershipObject 被另一个对象所有（可变）
	OwnershipObject
	// OwnershipShared 共享对象（多方可变，由账本规则约束）
	OwnershipShared
)

// String 返回所有权模式名称
func (m OwnershipMode) String() string {
	switch m {
	case OwnershipImmutable:
		return "immutable"
	case OwnershipAddress:
		return "address_owned"
	case OwnershipObject:
		return "object_owned"
	case OwnershipShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Owner 实体所有者
//
// 账本 JSON 形式：
//
//	"Immutable"
//	{"AddressOwner": "0x.."}
//	{"ObjectOwner": "0x.."}
//	{"Shared": {"initial_shared_version": 3}}
//	{"ConsensusAddressOwner": {"owner": "0x..", "start_version": 5}}
type Owner struct {
	Mode                 OwnershipMode `json:"-"`
	Address              string        `json:"-"` // AddressOwner / ObjectOwner / ConsensusAddressOwner
	InitialSharedVersion uint64        `json:"-"` // 仅 Shared
}

// IsImmutable 是否为不可变实体
func (o Owner) IsImmutable() bool {
	return o.Mode == OwnershipImmutable
}

// String 可读表示
func (o Owner) String() string {
	switch o.Mode {
	case OwnershipImmutable:
		return "Immutable"
	case OwnershipShared:
		return fmt.Sprintf("Shared(%d)", o.InitialSharedVersion)
	case OwnershipAddress, OwnershipObject:
		return fmt.Sprintf("%s(%s)", o.Mode, o.Address)
	default:
		return "Unknown"
	}
}

// UnmarshalJSON 解析账本返回的所有者结构
func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	// 字符串形式："Immutable"
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parse owner: %w", err)
		}
		if s == "Immutable" {
			*o = Owner{Mode: OwnershipImmutable}
			return nil
		}
		*o = Owner{Mode: OwnershipUnknown}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse owner: %w", err)
	}

	if v, ok := raw["AddressOwner"]; ok {
		var addr string
		if err := json.Unmarshal(v, &addr); err != nil {
			return fmt.Errorf("parse AddressOwner: %w", err)
		}
		*o = Owner{Mode: OwnershipAddress, Address: addr}
		return nil
	}

	if v, ok := raw["ObjectOwner"]; ok {
		var addr string
		if err := json.Unmarshal(v, &addr); err != nil {
			return fmt.Errorf("parse ObjectOwner: %w", err)
		}
		*o = Owner{Mode: OwnershipObject, Address: addr}
		return nil
	}

	if v, ok := raw["Shared"]; ok {
		var shared struct {
			InitialSharedVersion json.Number `json:"initial_shared_version"`
		}
		if err := json.Unmarshal(v, &shared); err != nil {
			return fmt.Errorf("parse Shared: %w", err)
		}
		version, err := strconv.ParseUint(shared.InitialSharedVersion.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("parse initial_shared_version: %w", err)
		}
		*o = Owner{Mode: OwnershipShared, InitialSharedVersion: version}
		return nil
	}

	if v, ok := raw["ConsensusAddressOwner"]; ok {
		var cao struct {
			Owner string `json:"owner"`
		}
		if err := json.Unmarshal(v, &cao); err != nil {
			return fmt.Errorf("parse ConsensusAddressOwner: %w", err)
		}
		*o = Owner{Mode: OwnershipAddress, Address: cao.Owner}
		return nil
	}

	*o = Owner{Mode: OwnershipUnknown}
	return nil
}

// MarshalJSON 输出与账本相同的形式
func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Mode {
	case OwnershipImmutable:
		return json.Marshal("Immutable")
	case OwnershipAddress:
		return json.Marshal(map[string]string{"AddressOwner": o.Address})
	case OwnershipObject:
		return json.Marshal(map[string]string{"ObjectOwner": o.Address})
	case OwnershipShared:
		return json.Marshal(map[string]interface{}{
			"Shared": map[string]uint64{"initial_shared_version": o.InitialSharedVersion},
		})
	default:
		return json.Marshal("Unknown")
	}
}
