package service

import (
	"context"
	"errors"
	"fmt"

	"mkwa_fitness_backend/internal/event"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"

	"gorm.io/gorm"
)

// AchievementService 成就引擎。解锁由 (member_id, achievement_id)
// 唯一索引兜底，解锁记录和积分发放在同一事务内落库。
type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	MemberRepo      *repository.MemberRepository
	LedgerRepo      *repository.LedgerRepository
	ActivityRepo    *repository.ActivityRepository
	StreakRepo      *repository.StreakRepository
	GoalRepo        *repository.GoalRepository
	Bus             *event.Bus
	DB              *gorm.DB
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	memberRepo *repository.MemberRepository,
	ledgerRepo *repository.LedgerRepository,
	activityRepo *repository.ActivityRepository,
	streakRepo *repository.StreakRepository,
	goalRepo *repository.GoalRepository,
	bus *event.Bus,
	db *gorm.DB,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		MemberRepo:      memberRepo,
		LedgerRepo:      ledgerRepo,
		ActivityRepo:    activityRepo,
		StreakRepo:      streakRepo,
		GoalRepo:        goalRepo,
		Bus:             bus,
		DB:              db,
	}
}

type AchievementRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	BadgeImageURL string               `json:"badgeImageUrl"`
	PointsValue   int64                `json:"pointsValue"`
	Requirements  model.RequirementSet `json:"requirements" binding:"required"`
	Type          string               `json:"achievementType"`
	IsActive      *bool                `json:"isActive"`
}

func (s *AchievementService) CreateAchievement(ctx context.Context, req AchievementRequest) (*model.Achievement, error) {
	a, err := achievementFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.AchievementRepo.Create(a); err != nil {
		return nil, mapDBError(err)
	}
	return a, nil
}

func (s *AchievementService) UpdateAchievement(ctx context.Context, id uint, req AchievementRequest) (*model.Achievement, error) {
	existing, err := s.GetAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := achievementFromRequest(req)
	if err != nil {
		return nil, err
	}
	updated.BaseModel = existing.BaseModel
	if err := s.AchievementRepo.Update(updated); err != nil {
		return nil, mapDBError(err)
	}
	return updated, nil
}

func (s *AchievementService) GetAchievement(ctx context.Context, id uint) (*model.Achievement, error) {
	a, err := s.AchievementRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAchievementNotFound
		}
		return nil, mapDBError(err)
	}
	return a, nil
}

func (s *AchievementService) ListAchievements(ctx context.Context, activeOnly bool) ([]model.Achievement, error) {
	achievements, err := s.AchievementRepo.List(activeOnly)
	return achievements, mapDBError(err)
}

func (s *AchievementService) GetMemberAchievements(ctx context.Context, memberID uint) ([]repository.UnlockedAchievement, error) {
	unlocked, err := s.AchievementRepo.UnlockedFor(memberID)
	return unlocked, mapDBError(err)
}

// CheckAndAward 评估会员尚未解锁的成就并发放命中的成就。
// 事实快照在会员行锁内采集，快照、解锁记录和积分发放同属
// 一个事务。单次调用只做一轮评估，成就积分触发的连锁解锁
// 留给下一次活动。
func (s *AchievementService) CheckAndAward(ctx context.Context, memberID uint) ([]model.Achievement, error) {
	var awarded []model.Achievement

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.MemberRepo.LockByID(tx, memberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrMemberNotFound
			}
			return err
		}

		facts, err := s.snapshotFacts(tx, memberID)
		if err != nil {
			return err
		}

		missing, err := s.AchievementRepo.MissingFor(tx, memberID)
		if err != nil {
			return err
		}

		for _, a := range missing {
			if !a.Requirements.Eval(facts) {
				continue
			}
			inserted, err := s.AchievementRepo.InsertUnlock(tx, memberID, a.ID)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			if a.PointsValue > 0 {
				txn := &model.PointsTransaction{
					MemberID:     memberID,
					Points:       a.PointsValue,
					Type:         model.TransactionEarned,
					ActivityType: model.ActivityAchievement,
					Description:  fmt.Sprintf("Achievement unlocked: %s", a.Name),
				}
				if err := s.LedgerRepo.Append(tx, txn); err != nil {
					return err
				}
			}
			awarded = append(awarded, a)
		}
		return nil
	})
	if err != nil {
		return nil, mapDBError(err)
	}

	for _, a := range awarded {
		s.Bus.Publish(ctx, event.NewAchievementAwarded(memberID, a.ID, a.Name, a.PointsValue))
	}
	return awarded, nil
}

// Award 管理员手动授予。重复授予返回 ErrAlreadyAwarded，无副作用。
func (s *AchievementService) Award(ctx context.Context, memberID, achievementID uint) error {
	a, err := s.GetAchievement(ctx, achievementID)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.MemberRepo.LockByID(tx, memberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrMemberNotFound
			}
			return err
		}
		inserted, err := s.AchievementRepo.InsertUnlock(tx, memberID, achievementID)
		if err != nil {
			return err
		}
		if !inserted {
			return util.ErrAlreadyAwarded
		}
		if a.PointsValue > 0 {
			txn := &model.PointsTransaction{
				MemberID:     memberID,
				Points:       a.PointsValue,
				Type:         model.TransactionEarned,
				ActivityType: model.ActivityAchievement,
				Description:  fmt.Sprintf("Achievement granted: %s", a.Name),
			}
			return s.LedgerRepo.Append(tx, txn)
		}
		return nil
	})
	if err != nil {
		return mapDBError(err)
	}

	s.Bus.Publish(ctx, event.NewAchievementAwarded(memberID, a.ID, a.Name, a.PointsValue))
	return nil
}

// snapshotFacts 在事务内采集条件评估用的事实。
// TotalPoints 用历史累计获得而不是当前余额，兑换不回收成就。
func (s *AchievementService) snapshotFacts(tx *gorm.DB, memberID uint) (model.FactSnapshot, error) {
	var facts model.FactSnapshot
	var err error

	if facts.TotalPoints, err = s.LedgerRepo.EarnedTotal(tx, memberID); err != nil {
		return facts, err
	}

	streak, err := s.StreakRepo.FindByMember(tx, memberID)
	switch {
	case err == nil:
		facts.CurrentStreak = streak.CurrentStreak
		facts.LongestStreak = streak.LongestStreak
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return facts, err
	}

	if facts.ActivityCounts, facts.TotalActivities, err = s.ActivityRepo.CountsByType(tx, memberID); err != nil {
		return facts, err
	}

	joined, err := s.GoalRepo.CountJoined(tx, memberID)
	if err != nil {
		return facts, err
	}
	completed, err := s.GoalRepo.CountCompleted(tx, memberID)
	if err != nil {
		return facts, err
	}
	facts.GoalsJoined = int(joined)
	facts.GoalsCompleted = int(completed)

	return facts, nil
}

func achievementFromRequest(req AchievementRequest) (*model.Achievement, error) {
	if req.PointsValue < 0 {
		return nil, fmt.Errorf("%w: points value must not be negative", util.ErrValidation)
	}
	if err := validateRequirements(req.Requirements); err != nil {
		return nil, err
	}

	achievementType := model.AchievementType(req.Type)
	if achievementType == "" {
		achievementType = model.AchievementSpecial
	}
	switch achievementType {
	case model.AchievementDaily, model.AchievementWeekly, model.AchievementMonthly, model.AchievementSpecial:
	default:
		return nil, fmt.Errorf("%w: unknown achievement type %q", util.ErrValidation, req.Type)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &model.Achievement{
		Name:          req.Name,
		Description:   req.Description,
		BadgeImageURL: req.BadgeImageURL,
		PointsValue:   req.PointsValue,
		Requirements:  req.Requirements,
		Type:          achievementType,
		IsActive:      active,
	}, nil
}

func validateRequirements(set model.RequirementSet) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: requirements must not be empty", util.ErrValidation)
	}
	for _, r := range set {
		if err := validateRequirement(r); err != nil {
			return err
		}
	}
	return nil
}

func validateRequirement(r model.Requirement) error {
	switch r.Kind {
	case model.KindThreshold:
		switch r.Field {
		case model.FactTotalPoints, model.FactCurrentStreak, model.FactLongestStreak,
			model.FactTotalActivities, model.FactGoalsJoined, model.FactGoalsCompleted:
		case model.FactActivityCount:
			if r.Activity == "" {
				return fmt.Errorf("%w: activity_count requirement needs an activity", util.ErrValidation)
			}
		default:
			return fmt.Errorf("%w: unknown requirement field %q", util.ErrValidation, r.Field)
		}
		switch r.Op {
		case model.OpGTE, model.OpGT, model.OpLTE, model.OpLT, model.OpEQ:
		default:
			return fmt.Errorf("%w: unknown requirement op %q", util.ErrValidation, r.Op)
		}
	case model.KindAll, model.KindAny:
		if len(r.Children) == 0 {
			return fmt.Errorf("%w: %s requirement needs children", util.ErrValidation, r.Kind)
		}
		for _, c := range r.Children {
			if err := validateRequirement(c); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown requirement kind %q", util.ErrValidation, r.Kind)
	}
	return nil
}
