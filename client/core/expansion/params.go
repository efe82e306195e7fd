// Package expansion 提供 expansion 游戏包的发布与调用操作
package expansion

import (
	"github.com/expansion/v1/pkg/types"
)

// 模块与函数名
const (
	ModuleScenes = "scenes"
	ModuleXCoin  = "xcoin"

	FunctionCreateScene      = "create_scene"
	FunctionMint             = "mint"
	FunctionParticipantEnter = "participant_enter"
)

// CreateSceneParameter scenes::create_scene 参数（字段顺序即参数顺序）
type CreateSceneParameter struct {
	Power          uint64 `json:"power"`
	Radius         uint64 `json:"radius"`
	Equilibrium    uint64 `json:"equilibrium"`
	Frames         uint64 `json:"frames"`
	FrameInterval  uint64 `json:"frame_interval"`
	NextFrameBlock uint64 `json:"next_frame_block"`
	MaxParticipant uint64 `json:"max_participant"`
	MinStakeAmount uint64 `json:"min_stake_amount"`
}

// MockScene 演示用场景
func MockScene() CreateSceneParameter {
	return CreateSceneParameter{
		Power:          100000,
		Radius:         2000,
		Equilibrium:    90,
		Frames:         1,
		FrameInterval:  1,
		NextFrameBlock: 10,
		MaxParticipant: 10,
		MinStakeAmount: 0,
	}
}

// CoinMintParameter xcoin::mint 参数
type CoinMintParameter struct {
	ObjectID  types.ObjectID `json:"object_id"` // xcoin 托管对象
	Amount    uint64         `json:"amount"`
	Recipient types.Address  `json:"recipient"`
}

// EnterParameter scenes::participant_enter 参数
type EnterParameter struct {
	SceneObjectID types.ObjectID `json:"scene_object_id"`
	StakeXCoinID  types.ObjectID `json:"stake_xcoin_id"`
	Participant   types.Address  `json:"participant"`
}

// UID Move 对象 id 字段
type UID struct {
	ID types.ObjectID `json:"id"`
}

// Scene 链上场景对象
type Scene struct {
	ID             UID       `json:"id"`
	Power          types.U64 `json:"power"`
	Radius         types.U64 `json:"radius"`
	Equilibrium    types.U64 `json:"equilibrium"`
	Frames         types.U64 `json:"frames"`
	FrameInterval  types.U64 `json:"frame_interval"`
	NextFrameBlock types.U64 `json:"next_frame_block"`
	MaxParticipant types.U64 `json:"max_participant"`
	MinStakeAmount types.U64 `json:"min_stake_amount"`
}
