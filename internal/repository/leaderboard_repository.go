package repository

import (
	"time"

	"mkwa_fitness_backend/internal/model"

	"gorm.io/gorm"
)

type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

func (r *LeaderboardRepository) Create(lb *model.Leaderboard) error {
	return r.DB.Create(lb).Error
}

func (r *LeaderboardRepository) FindByID(id uint) (*model.Leaderboard, error) {
	var lb model.Leaderboard
	err := r.DB.First(&lb, id).Error
	if err != nil {
		return nil, err
	}
	return &lb, nil
}

func (r *LeaderboardRepository) List() ([]model.Leaderboard, error) {
	var lbs []model.Leaderboard
	err := r.DB.Where("is_active = ?", true).Order("id").Find(&lbs).Error
	return lbs, err
}

// ScoreRow 投影器的原始输入。FirstAt 参与平分决胜：
// 分数相同者按最早得分时间、再按会员 ID 排序。
type ScoreRow struct {
	MemberID uint      `json:"memberId"`
	Name     string    `json:"name"`
	Score    int64     `json:"score"`
	FirstAt  time.Time `json:"-"`
}

// PointsScores 时间窗内各会员净积分
func (r *LeaderboardRepository) PointsScores(since time.Time) ([]ScoreRow, error) {
	q := r.DB.Model(&model.PointsTransaction{}).
		Select(`points_transactions.member_id,
			members.name,
			COALESCE(SUM(CASE
				WHEN transaction_type IN ('redeemed', 'expired') THEN -points
				ELSE points
			END), 0) as score,
			MIN(points_transactions.created_at) as first_at`).
		Joins("JOIN members ON members.id = points_transactions.member_id").
		Where("members.status = ?", model.MemberActive).
		Group("points_transactions.member_id, members.name")
	if !since.IsZero() {
		q = q.Where("points_transactions.created_at >= ?", since)
	}

	var rows []ScoreRow
	err := q.Scan(&rows).Error
	return rows, err
}

// StreakScores 当前连续天数
func (r *LeaderboardRepository) StreakScores() ([]ScoreRow, error) {
	var rows []ScoreRow
	err := r.DB.Model(&model.Streak{}).
		Select(`workout_streaks.member_id,
			members.name,
			workout_streaks.current_streak as score,
			workout_streaks.streak_start_date as first_at`).
		Joins("JOIN members ON members.id = workout_streaks.member_id").
		Where("members.status = ?", model.MemberActive).
		Scan(&rows).Error
	return rows, err
}

// ActivityScores 时间窗内活动次数
func (r *LeaderboardRepository) ActivityScores(since time.Time) ([]ScoreRow, error) {
	q := r.DB.Model(&model.Activity{}).
		Select(`activities.member_id,
			members.name,
			COUNT(*) as score,
			MIN(activities.created_at) as first_at`).
		Joins("JOIN members ON members.id = activities.member_id").
		Where("members.status = ?", model.MemberActive).
		Group("activities.member_id, members.name")
	if !since.IsZero() {
		q = q.Where("activities.created_at >= ?", since)
	}

	var rows []ScoreRow
	err := q.Scan(&rows).Error
	return rows, err
}
