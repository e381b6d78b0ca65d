package model

type LeaderboardType string

const (
	LeaderboardPoints     LeaderboardType = "points"
	LeaderboardStreak     LeaderboardType = "streak"
	LeaderboardActivities LeaderboardType = "activities"
)

type LeaderboardPeriod string

const (
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "all_time"
)

// Leaderboard 排行榜定义。条目是读模型，由投影器按需重算，不落库。
type Leaderboard struct {
	BaseModel
	Name        string            `gorm:"size:100;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Type        LeaderboardType   `gorm:"size:20;default:points" json:"type"`
	Period      LeaderboardPeriod `gorm:"size:20;default:weekly" json:"period"`
	IsActive    bool              `gorm:"default:true" json:"isActive"`
}

func (Leaderboard) TableName() string {
	return "leaderboards"
}

func ValidLeaderboardType(t LeaderboardType) bool {
	switch t {
	case LeaderboardPoints, LeaderboardStreak, LeaderboardActivities:
		return true
	}
	return false
}

func ValidLeaderboardPeriod(p LeaderboardPeriod) bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}
