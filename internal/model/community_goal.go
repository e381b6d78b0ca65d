package model

import "time"

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
)

// CommunityGoal 社区共同目标。
// 不变式：CurrentValue == 所有参与者 Contribution 之和，
// 两者只在同一事务内同步递增。active→completed 单向且恰好一次。
type CommunityGoal struct {
	BaseModel
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	GoalType       string     `gorm:"size:50;default:collective" json:"goalType"`
	TargetValue    int64      `gorm:"not null" json:"targetValue"`
	CurrentValue   int64      `gorm:"default:0" json:"currentValue"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	RewardPoints   int64      `gorm:"default:0" json:"rewardPoints"`
	Status         GoalStatus `gorm:"size:20;default:active;index" json:"status"`
	CompletionDate *time.Time `json:"completionDate"`
}

func (CommunityGoal) TableName() string {
	return "community_goals"
}

func (g *CommunityGoal) Reached() bool {
	return g.CurrentValue >= g.TargetValue
}

// GoalParticipant 目标参与记录，(goal_id, member_id) 唯一
type GoalParticipant struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GoalID       uint      `gorm:"uniqueIndex:idx_goal_member;not null" json:"goalId"`
	MemberID     uint      `gorm:"uniqueIndex:idx_goal_member;not null" json:"memberId"`
	Contribution int64     `gorm:"default:0" json:"contribution"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func (GoalParticipant) TableName() string {
	return "goal_participants"
}
