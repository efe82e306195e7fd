package contract

// Stage 流水线阶段
//
// Building → Signing → Submitted → Finalized，任一非终止阶段出错进入 Aborted。
type Stage int

const (
	StageBuilding Stage = iota
	StageSigning
	StageSubmitted
	StageFinalized
	StageAborted
)

// String 阶段名称
func (s Stage) String() string {
	switch s {
	case StageBuilding:
		return "building"
	case StageSigning:
		return "signing"
	case StageSubmitted:
		return "submitted"
	case StageFinalized:
		return "finalized"
	case StageAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal 是否为终止阶段
func (s Stage) Terminal() bool {
	return s == StageFinalized || s == StageAborted
}

// next 合法的后继阶段
func (s Stage) next() Stage {
	switch s {
	case StageBuilding:
		return StageSigning
	case StageSigning:
		return StageSubmitted
	case StageSubmitted:
		return StageFinalized
	default:
		return s
	}
}
