package service

import (
	"context"
	"errors"
	"time"

	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"

	"gorm.io/gorm"
)

type StreakService struct {
	StreakRepo *repository.StreakRepository
	Bus        *event.Bus
	DB         *gorm.DB
}

func NewStreakService(streakRepo *repository.StreakRepository, bus *event.Bus, db *gorm.DB) *StreakService {
	return &StreakService{StreakRepo: streakRepo, Bus: bus, DB: db}
}

func (s *StreakService) GetStreak(ctx context.Context, memberID uint) (*model.Streak, error) {
	streak, err := s.StreakRepo.FindByMember(s.DB.WithContext(ctx), memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 尚无活动记录，返回零值而不是 404
			return &model.Streak{MemberID: memberID}, nil
		}
		return nil, mapDBError(err)
	}
	return streak, nil
}

// AdvanceTx 在调用方的事务内推进 streak 状态机。
// 调用方必须已持有该会员行的排它锁。回溯日期返回 ErrStaleActivity。
func (s *StreakService) AdvanceTx(tx *gorm.DB, memberID uint, activityDate time.Time) (*model.Streak, model.StreakOutcome, error) {
	streak, err := s.StreakRepo.FindByMember(tx, memberID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.StreakNoop, err
		}
		streak = &model.Streak{MemberID: memberID}
	}

	outcome := streak.Advance(activityDate)
	switch outcome {
	case model.StreakStale:
		return nil, outcome, util.ErrStaleActivity
	case model.StreakNoop:
		return streak, outcome, nil
	}

	if err := s.StreakRepo.Save(tx, streak); err != nil {
		return nil, outcome, err
	}
	return streak, outcome, nil
}

// Sweep 归零超过一天没有活动的 streak。由外部调度触发，幂等。
// cutoff 取今天零点的前一天：昨天有活动的还可能在今天续上，不归零。
func (s *StreakService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.AddDate(0, 0, -1)

	affected, err := s.StreakRepo.BreakExpired(cutoff)
	return affected, mapDBError(err)
}
