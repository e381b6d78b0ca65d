package model

import "time"

// Streak 连续锻炼天数状态机，每个会员至多一条记录。
// 不变式：LongestStreak >= CurrentStreak。
type Streak struct {
	BaseModel
	MemberID         uint      `gorm:"uniqueIndex;not null" json:"memberId"`
	CurrentStreak    int       `gorm:"default:0" json:"currentStreak"`
	LongestStreak    int       `gorm:"default:0" json:"longestStreak"`
	LastActivityDate time.Time `json:"lastActivityDate"`
	StreakStartDate  time.Time `json:"streakStartDate"`
}

func (Streak) TableName() string {
	return "workout_streaks"
}

// StreakOutcome 一次活动对 streak 的影响
type StreakOutcome int

const (
	StreakNoop     StreakOutcome = iota // 当天已记录，幂等跳过
	StreakStarted                       // 新建或中断后重新开始
	StreakExtended                      // 连续日 +1
	StreakStale                         // 活动日期早于已记录日期，拒绝
)

// Advance 按日历日推进状态机。调用方需保证单会员互斥。
// 同一天重复活动不累计；间隔正好一天则 +1；间隔超过一天重置为 1；
// 回溯日期不修改状态。
func (s *Streak) Advance(activityDate time.Time) StreakOutcome {
	day := time.Date(activityDate.Year(), activityDate.Month(), activityDate.Day(), 0, 0, 0, 0, time.UTC)

	if s.CurrentStreak == 0 && s.LastActivityDate.IsZero() {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.LastActivityDate = day
		s.StreakStartDate = day
		return StreakStarted
	}

	last := time.Date(s.LastActivityDate.Year(), s.LastActivityDate.Month(), s.LastActivityDate.Day(), 0, 0, 0, 0, time.UTC)

	switch days := int(day.Sub(last).Hours() / 24); {
	case days < 0:
		return StreakStale
	case days == 0:
		return StreakNoop
	case days == 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastActivityDate = day
		if s.CurrentStreak == 1 {
			s.StreakStartDate = day
		}
		return StreakExtended
	default:
		s.CurrentStreak = 1
		s.LastActivityDate = day
		s.StreakStartDate = day
		return StreakStarted
	}
}
