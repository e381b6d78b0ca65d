package model

import "time"

type AchievementType string

const (
	AchievementDaily   AchievementType = "daily"
	AchievementWeekly  AchievementType = "weekly"
	AchievementMonthly AchievementType = "monthly"
	AchievementSpecial AchievementType = "special"
)

// Achievement 管理员定义的成就。Requirements 仅在存储边界序列化为 JSON，
// 内存里始终是类型化的条件树。
type Achievement struct {
	BaseModel
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	BadgeImageURL string          `gorm:"size:255" json:"badgeImageUrl"`
	PointsValue   int64           `gorm:"default:0" json:"pointsValue"`
	Requirements  RequirementSet  `gorm:"serializer:json" json:"requirements"`
	Type          AchievementType `gorm:"column:achievement_type;size:20;default:special" json:"achievementType"`
	IsActive      bool            `gorm:"default:true" json:"isActive"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// MemberAchievement 解锁记录，(member_id, achievement_id) 唯一，
// 唯一索引兜底并发下的 exactly-once。
type MemberAchievement struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID      uint      `gorm:"uniqueIndex:idx_member_achievement;not null" json:"memberId"`
	AchievementID uint      `gorm:"uniqueIndex:idx_member_achievement;not null" json:"achievementId"`
	EarnedDate    time.Time `json:"earnedDate"`
}

func (MemberAchievement) TableName() string {
	return "member_achievements"
}
