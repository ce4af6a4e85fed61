package engine

// CycleState 刷新周期所处阶段
type CycleState int

const (
	// StateIdle 等待下一次触发
	StateIdle CycleState = iota
	// StateBuildingProposal 生成候选报价
	StateBuildingProposal
	// StateAdjustingBudget 全有或全无的预算校验
	StateAdjustingBudget
	// StateFiltering 针对当前 mid 的盈利过滤
	StateFiltering
	// StateSubmitting 提交通过的订单
	StateSubmitting
)

// String 返回状态名称
func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBuildingProposal:
		return "BUILDING_PROPOSAL"
	case StateAdjustingBudget:
		return "ADJUSTING_BUDGET"
	case StateFiltering:
		return "FILTERING"
	case StateSubmitting:
		return "SUBMITTING"
	default:
		return "UNKNOWN"
	}
}
