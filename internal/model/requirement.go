package model

// 成就条件树。替代原始实现里松散的嵌套 map：
// 叶子是阈值比较，组合节点是 all / any。

type RequirementKind string

const (
	KindThreshold RequirementKind = "threshold"
	KindAll       RequirementKind = "all"
	KindAny       RequirementKind = "any"
)

type FactField string

const (
	FactTotalPoints     FactField = "total_points"
	FactCurrentStreak   FactField = "current_streak"
	FactLongestStreak   FactField = "longest_streak"
	FactTotalActivities FactField = "total_activities"
	FactActivityCount   FactField = "activity_count" // 配合 Activity 字段使用
	FactGoalsJoined     FactField = "goals_joined"
	FactGoalsCompleted  FactField = "goals_completed"
)

type CompareOp string

const (
	OpGTE CompareOp = "gte"
	OpGT  CompareOp = "gt"
	OpLTE CompareOp = "lte"
	OpLT  CompareOp = "lt"
	OpEQ  CompareOp = "eq"
)

// Requirement 条件节点。Kind 决定生效的字段：
// threshold 使用 Field/Op/Value（activity_count 另带 Activity），
// all / any 使用 Children。
type Requirement struct {
	Kind     RequirementKind `json:"kind"`
	Field    FactField       `json:"field,omitempty"`
	Activity string          `json:"activity,omitempty"`
	Op       CompareOp       `json:"op,omitempty"`
	Value    int64           `json:"value,omitempty"`
	Children []Requirement   `json:"children,omitempty"`
}

// RequirementSet 顶层条件列表，语义为全部满足
type RequirementSet []Requirement

// FactSnapshot 评估条件时的会员事实快照，在加锁事务内采集
type FactSnapshot struct {
	TotalPoints     int64
	CurrentStreak   int
	LongestStreak   int
	TotalActivities int
	ActivityCounts  map[string]int
	GoalsJoined     int
	GoalsCompleted  int
}

func Threshold(field FactField, op CompareOp, value int64) Requirement {
	return Requirement{Kind: KindThreshold, Field: field, Op: op, Value: value}
}

func ActivityThreshold(activity string, op CompareOp, value int64) Requirement {
	return Requirement{Kind: KindThreshold, Field: FactActivityCount, Activity: activity, Op: op, Value: value}
}

func All(children ...Requirement) Requirement {
	return Requirement{Kind: KindAll, Children: children}
}

func Any(children ...Requirement) Requirement {
	return Requirement{Kind: KindAny, Children: children}
}

// Eval 对快照求值。空集返回 false，不存在永真成就。
func (s RequirementSet) Eval(f FactSnapshot) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !r.Eval(f) {
			return false
		}
	}
	return true
}

func (r Requirement) Eval(f FactSnapshot) bool {
	switch r.Kind {
	case KindThreshold:
		return compare(r.factValue(f), r.Op, r.Value)
	case KindAll:
		for _, c := range r.Children {
			if !c.Eval(f) {
				return false
			}
		}
		return len(r.Children) > 0
	case KindAny:
		for _, c := range r.Children {
			if c.Eval(f) {
				return true
			}
		}
		return false
	}
	return false
}

func (r Requirement) factValue(f FactSnapshot) int64 {
	switch r.Field {
	case FactTotalPoints:
		return f.TotalPoints
	case FactCurrentStreak:
		return int64(f.CurrentStreak)
	case FactLongestStreak:
		return int64(f.LongestStreak)
	case FactTotalActivities:
		return int64(f.TotalActivities)
	case FactActivityCount:
		return int64(f.ActivityCounts[r.Activity])
	case FactGoalsJoined:
		return int64(f.GoalsJoined)
	case FactGoalsCompleted:
		return int64(f.GoalsCompleted)
	}
	return 0
}

func compare(left int64, op CompareOp, right int64) bool {
	switch op {
	case OpGTE:
		return left >= right
	case OpGT:
		return left > right
	case OpLTE:
		return left <= right
	case OpLT:
		return left < right
	case OpEQ:
		return left == right
	}
	return false
}
