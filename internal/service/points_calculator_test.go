package service

import (
	"testing"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
)

// 08:00，高峰时段
var peakTime = time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)

// 13:00，非高峰窗口内
var offPeakTime = time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)

func TestCalculate(t *testing.T) {
	calc := NewPointsCalculator(config.DefaultRules())

	tests := []struct {
		name         string
		activityType string
		actx         ActivityContext
		want         int64
	}{
		{
			name:         "gym visit base",
			activityType: model.ActivityGymVisit,
			actx:         ActivityContext{Timestamp: peakTime, MembershipTier: model.TierStandard},
			want:         10,
		},
		{
			name:         "class attendance base",
			activityType: model.ActivityClassAttendance,
			actx:         ActivityContext{Timestamp: peakTime, MembershipTier: model.TierStandard},
			want:         20,
		},
		{
			name:         "referral base",
			activityType: model.ActivityReferral,
			actx:         ActivityContext{Timestamp: peakTime, MembershipTier: model.TierStandard},
			want:         50,
		},
		{
			name:         "off-peak visit",
			activityType: model.ActivityGymVisit,
			actx:         ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierStandard},
			want:         15,
		},
		{
			name:         "premium class",
			activityType: model.ActivityClassAttendance,
			actx:         ActivityContext{Timestamp: peakTime, ClassType: "premium", MembershipTier: model.TierStandard},
			want:         30,
		},
		{
			name:         "premium member visit",
			activityType: model.ActivityGymVisit,
			actx:         ActivityContext{Timestamp: peakTime, MembershipTier: model.TierPremium},
			want:         12,
		},
		{
			name:         "off-peak does not apply to classes",
			activityType: model.ActivityClassAttendance,
			actx:         ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierStandard},
			want:         20,
		},
		{
			name:         "off-peak does not apply to referrals",
			activityType: model.ActivityReferral,
			actx:         ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierStandard},
			want:         50,
		},
		{
			name:         "class multipliers stack",
			activityType: model.ActivityClassAttendance,
			actx:         ActivityContext{Timestamp: offPeakTime, ClassType: "premium", MembershipTier: model.TierPremium},
			want:         36, // 20 * 1.5 * 1.2
		},
		{
			name:         "off-peak premium member visit",
			activityType: model.ActivityGymVisit,
			actx:         ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierPremium},
			want:         18, // 10 * 1.5 * 1.2
		},
		{
			name:         "streak bonus at minimum",
			activityType: model.ActivityStreakBonus,
			actx:         ActivityContext{Timestamp: peakTime, StreakDays: 3},
			want:         15,
		},
		{
			name:         "streak bonus below minimum",
			activityType: model.ActivityStreakBonus,
			actx:         ActivityContext{Timestamp: peakTime, StreakDays: 2},
			want:         0,
		},
		{
			name:         "achievement fixed value",
			activityType: model.ActivityAchievement,
			actx:         ActivityContext{FixedValue: 100},
			want:         100,
		},
		{
			name:         "community goal fixed value",
			activityType: model.ActivityCommunityGoal,
			actx:         ActivityContext{FixedValue: 75},
			want:         75,
		},
		{
			name:         "unknown type",
			activityType: "swimming",
			actx:         ActivityContext{Timestamp: peakTime},
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(tt.activityType, tt.actx)
			if got != tt.want {
				t.Errorf("Calculate(%s) = %d, want %d", tt.activityType, got, tt.want)
			}
		})
	}
}

func TestCalculateOffPeakWindow(t *testing.T) {
	calc := NewPointsCalculator(config.DefaultRules())

	tests := []struct {
		hour int
		want int64
	}{
		{9, 10},
		{10, 15}, // 窗口起点含
		{15, 15},
		{16, 15}, // 窗口终点也含
		{17, 10},
	}
	for _, tt := range tests {
		ts := time.Date(2026, 8, 24, tt.hour, 30, 0, 0, time.UTC)
		got := calc.Calculate(model.ActivityGymVisit, ActivityContext{Timestamp: ts, MembershipTier: model.TierStandard})
		if got != tt.want {
			t.Errorf("hour %d: got %d, want %d", tt.hour, got, tt.want)
		}
	}
}

func TestCalculateTruncatesFractionalPoints(t *testing.T) {
	rules := config.DefaultRules()
	rules.OffPeakMultiplier = 1.15
	calc := NewPointsCalculator(rules)

	// 10 * 1.15 = 11.5，截断不进位
	got := calc.Calculate(model.ActivityGymVisit, ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierStandard})
	if got != 11 {
		t.Errorf("fractional multiplier: got %d, want 11", got)
	}

	rules.OffPeakMultiplier = 1.9
	calc.UpdateRules(rules)
	got = calc.Calculate(model.ActivityGymVisit, ActivityContext{Timestamp: offPeakTime, MembershipTier: model.TierStandard})
	if got != 19 {
		t.Errorf("fractional multiplier: got %d, want 19", got)
	}
}

func TestUpdateRules(t *testing.T) {
	calc := NewPointsCalculator(config.DefaultRules())

	rules := config.DefaultRules()
	rules.PointsPerVisit = 30
	calc.UpdateRules(rules)

	got := calc.Calculate(model.ActivityGymVisit, ActivityContext{Timestamp: peakTime, MembershipTier: model.TierStandard})
	if got != 30 {
		t.Errorf("after rule update: got %d, want 30", got)
	}
}
