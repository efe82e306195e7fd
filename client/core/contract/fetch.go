package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/pkg/types"
)

// moveObjectType Move 对象内容类型
const moveObjectType = "moveObject"

// FetchObject 读取实体当前数据（类型、所有者与内容）
func (s *Service) FetchObject(ctx context.Context, id types.ObjectID) (*transport.ObjectData, error) {
	obj, err := s.client.GetObject(ctx, id, transport.FullObjectOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, id, err)
	}
	return obj, nil
}

// FetchState 读取实体并把 Move 字段解码为 T
//
// 实体不存在、不是 Move 对象或字段无法解码时返回 ErrFetch。
func FetchState[T any](ctx context.Context, s *Service, id types.ObjectID) (T, error) {
	var out T

	obj, err := s.FetchObject(ctx, id)
	if err != nil {
		return out, err
	}
	if obj.Content == nil {
		return out, fmt.Errorf("%w: %s: no content", ErrFetch, id)
	}
	if obj.Content.DataType != moveObjectType {
		return out, fmt.Errorf("%w: %s: not a move object (%s)", ErrFetch, id, obj.Content.DataType)
	}
	if len(obj.Content.Fields) == 0 {
		return out, fmt.Errorf("%w: %s: empty fields", ErrFetch, id)
	}

	if err := json.Unmarshal(obj.Content.Fields, &out); err != nil {
		return out, fmt.Errorf("%w: %s: decode %s: %w", ErrFetch, id, obj.Content.Type, err)
	}
	return out, nil
}
