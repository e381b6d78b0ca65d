package service

import (
	"sync"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
)

// ActivityContext 单次活动计分所需的上下文。
// FixedValue 仅对固定值类型（成就、社区目标）生效。
type ActivityContext struct {
	Timestamp      time.Time
	ClassType      string
	MembershipTier model.MembershipTier
	StreakDays     int
	FixedValue     int64
}

// PointsCalculator 纯函数计分器。规则表持有快照，
// 热更新通过 UpdateRules 整体替换，进行中的计算不受影响。
type PointsCalculator struct {
	mu    sync.RWMutex
	rules config.RulesConfig
}

func NewPointsCalculator(rules config.RulesConfig) *PointsCalculator {
	return &PointsCalculator{rules: rules}
}

// UpdateRules 配置热更新入口，整表替换
func (c *PointsCalculator) UpdateRules(rules config.RulesConfig) {
	c.mu.Lock()
	c.rules = rules
	c.mu.Unlock()
}

func (c *PointsCalculator) Rules() config.RulesConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules
}

// Calculate 按活动类型计分。未知类型返回 0，由调用方决定是否拒绝。
// 乘数依次叠加：非高峰时段（仅到馆打卡）、精品课程、高级会员；
// 结果截断取整。
func (c *PointsCalculator) Calculate(activityType string, actx ActivityContext) int64 {
	r := c.Rules()

	switch activityType {
	case model.ActivityAchievement, model.ActivityCommunityGoal:
		return actx.FixedValue
	case model.ActivityStreakBonus:
		if actx.StreakDays < r.MinimumStreakDays {
			return 0
		}
		return truncate(float64(r.PointsPerVisit) * r.StreakBonusMultiplier)
	}

	var base int64
	switch activityType {
	case model.ActivityGymVisit:
		base = int64(r.PointsPerVisit)
	case model.ActivityClassAttendance:
		base = int64(r.PointsPerClass)
	case model.ActivityReferral:
		base = int64(r.PointsPerReferral)
	default:
		return 0
	}

	points := float64(base)

	// 非高峰激励只针对到馆打卡，课程和转介不受时段影响
	if activityType == model.ActivityGymVisit && offPeak(actx.Timestamp, r.OffPeakStart, r.OffPeakEnd) {
		points *= r.OffPeakMultiplier
	}
	if activityType == model.ActivityClassAttendance && actx.ClassType == "premium" {
		points *= r.PremiumClassMultiplier
	}
	if actx.MembershipTier == model.TierPremium {
		points *= r.PremiumMemberMultiplier
	}

	return truncate(points)
}

// offPeak 判断时间是否落在非高峰窗口 [start, end] 内，
// 按小时粒度，两端都含
func offPeak(t time.Time, start, end int) bool {
	if t.IsZero() {
		return false
	}
	h := t.Hour()
	return h >= start && h <= end
}

// 乘数叠加后截断取整，不四舍五入
func truncate(v float64) int64 {
	return int64(v)
}
