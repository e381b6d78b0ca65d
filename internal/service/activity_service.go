package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"
	"mkwa_fitness_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActivityService 活动上报入口，串起计分、账本、streak、
// 成就与社区目标。核心写入（活动行、流水、余额、streak）在
// 一个会员行锁事务内完成；成就检查和目标贡献各自成独立事务，
// 失败只影响附加进度，不回滚已记的积分。
type ActivityService struct {
	Calculator     *PointsCalculator
	MemberRepo     *repository.MemberRepository
	ActivityRepo   *repository.ActivityRepository
	LedgerRepo     *repository.LedgerRepository
	StreakSvc      *StreakService
	AchievementSvc *AchievementService
	GoalSvc        *GoalService
	GoalRepo       *repository.GoalRepository
	Bus            *event.Bus
	DB             *gorm.DB
}

func NewActivityService(
	calculator *PointsCalculator,
	memberRepo *repository.MemberRepository,
	activityRepo *repository.ActivityRepository,
	ledgerRepo *repository.LedgerRepository,
	streakSvc *StreakService,
	achievementSvc *AchievementService,
	goalSvc *GoalService,
	goalRepo *repository.GoalRepository,
	bus *event.Bus,
	db *gorm.DB,
) *ActivityService {
	return &ActivityService{
		Calculator:     calculator,
		MemberRepo:     memberRepo,
		ActivityRepo:   activityRepo,
		LedgerRepo:     ledgerRepo,
		StreakSvc:      streakSvc,
		AchievementSvc: achievementSvc,
		GoalSvc:        goalSvc,
		GoalRepo:       goalRepo,
		Bus:            bus,
		DB:             db,
	}
}

type LogActivityRequest struct {
	ActivityType   string `json:"activityType" binding:"required"`
	Duration       int    `json:"duration"`
	IntensityLevel string `json:"intensityLevel"`
	ClassType      string `json:"classType"`
	Comments       string `json:"comments"`
}

// ActivityResult 一次上报的完整结果
type ActivityResult struct {
	ActivityID      uint                 `json:"activityId"`
	TransactionID   uint                 `json:"transactionId"`
	PointsAwarded   int64                `json:"pointsAwarded"`
	CurrentStreak   int                  `json:"currentStreak"`
	NewAchievements []model.Achievement  `json:"newAchievements"`
	GoalUpdates     []ContributionResult `json:"goalUpdates"`
}

// LogActivity 记一次会员活动
func (s *ActivityService) LogActivity(ctx context.Context, memberID uint, req LogActivityRequest) (*ActivityResult, error) {
	if !model.LoggableActivityType(req.ActivityType) {
		return nil, fmt.Errorf("%w: unknown activity type %q", util.ErrValidation, req.ActivityType)
	}
	if req.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", util.ErrValidation)
	}

	member, err := s.MemberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMemberNotFound
		}
		return nil, mapDBError(err)
	}
	if !member.IsActive() {
		return nil, util.ErrMemberNotActive
	}

	now := time.Now()
	result := &ActivityResult{}
	var streakEvt *event.StreakUpdated

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.MemberRepo.LockByID(tx, memberID)
		if err != nil {
			return err
		}

		streak, outcome, err := s.StreakSvc.AdvanceTx(tx, memberID, now)
		if err != nil {
			return err
		}
		if outcome == model.StreakStarted || outcome == model.StreakExtended {
			evt := event.NewStreakUpdated(memberID, streak.CurrentStreak, streak.LongestStreak)
			streakEvt = &evt
		}
		result.CurrentStreak = streak.CurrentStreak

		points := s.Calculator.Calculate(req.ActivityType, ActivityContext{
			Timestamp:      now,
			ClassType:      req.ClassType,
			MembershipTier: locked.MembershipTier,
			StreakDays:     streak.CurrentStreak,
		})

		activity := &model.Activity{
			MemberID:       memberID,
			ActivityType:   req.ActivityType,
			Duration:       req.Duration,
			IntensityLevel: req.IntensityLevel,
			PointsEarned:   points,
			Comments:       req.Comments,
		}
		if err := s.ActivityRepo.Create(tx, activity); err != nil {
			return err
		}
		result.ActivityID = activity.ID
		result.PointsAwarded = points

		if points > 0 {
			txn := &model.PointsTransaction{
				MemberID:     memberID,
				Points:       points,
				Type:         model.TransactionEarned,
				ActivityType: req.ActivityType,
				Description:  fmt.Sprintf("Activity: %s", req.ActivityType),
			}
			if err := s.LedgerRepo.Append(tx, txn); err != nil {
				return err
			}
			result.TransactionID = txn.ID
		}
		return nil
	})
	if err != nil {
		return nil, mapDBError(err)
	}

	if result.PointsAwarded > 0 {
		s.Bus.Publish(ctx, event.NewPointsAwarded(memberID, result.PointsAwarded, req.ActivityType, result.TransactionID))
	}
	if streakEvt != nil {
		s.Bus.Publish(ctx, *streakEvt)
	}

	// 核心写入已提交，附加进度失败只记日志
	if unlocked, err := s.AchievementSvc.CheckAndAward(ctx, memberID); err != nil {
		logger.Log.Warn("achievement check failed after activity",
			zap.Uint("member", memberID), zap.Error(err))
	} else {
		result.NewAchievements = unlocked
	}

	result.GoalUpdates = s.contributeToGoals(ctx, memberID, req.ActivityType, result.PointsAwarded)

	return result, nil
}

// contributeToGoals 把本次活动折算进会员已加入的进行中目标。
// points 型目标记入获得的积分，activities 型目标记一次。
func (s *ActivityService) contributeToGoals(ctx context.Context, memberID uint, activityType string, points int64) []ContributionResult {
	participations, err := s.GoalRepo.ActiveParticipations(memberID)
	if err != nil {
		logger.Log.Warn("goal lookup failed after activity",
			zap.Uint("member", memberID), zap.Error(err))
		return nil
	}

	var updates []ContributionResult
	for _, p := range participations {
		goal, err := s.GoalSvc.GetGoal(ctx, p.GoalID)
		if err != nil {
			continue
		}
		amount := goalContribution(goal.GoalType, points)
		if amount <= 0 {
			continue
		}
		res, err := s.GoalSvc.Contribute(ctx, p.GoalID, memberID, amount)
		if err != nil {
			// 并发下目标可能刚被其他贡献完成，跳过即可
			if !errors.Is(err, util.ErrGoalNotActive) {
				logger.Log.Warn("goal contribution failed after activity",
					zap.Uint("member", memberID), zap.Uint("goal", p.GoalID), zap.Error(err))
			}
			continue
		}
		updates = append(updates, *res)
	}
	return updates
}

// goalContribution 活动对目标的折算金额
func goalContribution(goalType string, points int64) int64 {
	switch goalType {
	case "activities":
		return 1
	default:
		// collective / points 型目标按获得积分累计
		return points
	}
}

func (s *ActivityService) ListActivities(ctx context.Context, memberID uint, page, limit int) ([]model.Activity, int64, error) {
	activities, total, err := s.ActivityRepo.ListByMember(memberID, page, limit)
	return activities, total, mapDBError(err)
}

func (s *ActivityService) GetStats(ctx context.Context, memberID uint) (*repository.ActivityStats, error) {
	stats, err := s.ActivityRepo.Stats(memberID)
	return stats, mapDBError(err)
}
