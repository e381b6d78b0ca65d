package event

import (
	"time"

	"github.com/google/uuid"
)

// 领域事件，替代原始实现里隐式的 hook 级联：
// 每个核心操作发布类型化事件，订阅者在装配期显式注册。

type Event interface {
	Name() string
	EventID() string
	OccurredAt() time.Time
}

type base struct {
	ID   string    `json:"eventId"`
	Time time.Time `json:"occurredAt"`
}

func newBase() base {
	return base{ID: uuid.New().String(), Time: time.Now()}
}

func (b base) EventID() string       { return b.ID }
func (b base) OccurredAt() time.Time { return b.Time }

type PointsAwarded struct {
	base
	MemberID      uint   `json:"memberId"`
	Points        int64  `json:"points"`
	ActivityType  string `json:"activityType"`
	TransactionID uint   `json:"transactionId"`
}

func NewPointsAwarded(memberID uint, points int64, activityType string, txID uint) PointsAwarded {
	return PointsAwarded{base: newBase(), MemberID: memberID, Points: points, ActivityType: activityType, TransactionID: txID}
}

func (PointsAwarded) Name() string { return "points_awarded" }

type AchievementAwarded struct {
	base
	MemberID      uint   `json:"memberId"`
	AchievementID uint   `json:"achievementId"`
	Achievement   string `json:"achievement"`
	PointsValue   int64  `json:"pointsValue"`
}

func NewAchievementAwarded(memberID, achievementID uint, name string, points int64) AchievementAwarded {
	return AchievementAwarded{base: newBase(), MemberID: memberID, AchievementID: achievementID, Achievement: name, PointsValue: points}
}

func (AchievementAwarded) Name() string { return "achievement_awarded" }

type StreakUpdated struct {
	base
	MemberID      uint `json:"memberId"`
	CurrentStreak int  `json:"currentStreak"`
	LongestStreak int  `json:"longestStreak"`
}

func NewStreakUpdated(memberID uint, current, longest int) StreakUpdated {
	return StreakUpdated{base: newBase(), MemberID: memberID, CurrentStreak: current, LongestStreak: longest}
}

func (StreakUpdated) Name() string { return "streak_updated" }

type GoalCompleted struct {
	base
	GoalID       uint  `json:"goalId"`
	FinalValue   int64 `json:"finalValue"`
	RewardPoints int64 `json:"rewardPoints"`
	Participants int   `json:"participants"`
}

func NewGoalCompleted(goalID uint, finalValue, reward int64, participants int) GoalCompleted {
	return GoalCompleted{base: newBase(), GoalID: goalID, FinalValue: finalValue, RewardPoints: reward, Participants: participants}
}

func (GoalCompleted) Name() string { return "goal_completed" }
