package model

import "time"

// 可记录的活动类型。achievement 与 community_goal 由引擎内部产生，
// 不接受会员直接上报。
const (
	ActivityGymVisit        = "gym_visit"
	ActivityClassAttendance = "class_attendance"
	ActivityReferral        = "referral"
	ActivityStreakBonus     = "streak_bonus"
	ActivityAchievement     = "achievement"
	ActivityCommunityGoal   = "community_goal"
	ActivityRedemption      = "redemption"
	ActivityAdjustment      = "manual_adjustment"
	ActivityExpiration      = "expiration"
)

// Activity 会员活动记录
type Activity struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID       uint      `gorm:"index:idx_member_created;not null" json:"memberId"`
	ActivityType   string    `gorm:"size:50;not null;index" json:"activityType"`
	Duration       int       `json:"duration"` // 分钟
	IntensityLevel string    `gorm:"size:20" json:"intensityLevel"`
	PointsEarned   int64     `gorm:"default:0" json:"pointsEarned"`
	Comments       string    `gorm:"type:text" json:"comments"`
	CreatedAt      time.Time `gorm:"index:idx_member_created" json:"createdAt"`
}

func (Activity) TableName() string {
	return "activities"
}

// LoggableActivityType 会员入口允许上报的活动类型
func LoggableActivityType(t string) bool {
	switch t {
	case ActivityGymVisit, ActivityClassAttendance, ActivityReferral, ActivityStreakBonus:
		return true
	}
	return false
}
