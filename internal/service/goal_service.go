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

	"gorm.io/gorm"
)

// GoalService 社区目标引擎。贡献与完成判定都在目标行锁内进行，
// active→completed 恰好翻转一次，奖励发放与翻转同属一个事务。
// 锁顺序固定为先目标行、再按 ID 升序的会员行，避免互锁。
type GoalService struct {
	GoalRepo   *repository.GoalRepository
	MemberRepo *repository.MemberRepository
	LedgerRepo *repository.LedgerRepository
	Bus        *event.Bus
	DB         *gorm.DB
}

func NewGoalService(goalRepo *repository.GoalRepository, memberRepo *repository.MemberRepository, ledgerRepo *repository.LedgerRepository, bus *event.Bus, db *gorm.DB) *GoalService {
	return &GoalService{GoalRepo: goalRepo, MemberRepo: memberRepo, LedgerRepo: ledgerRepo, Bus: bus, DB: db}
}

type GoalRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	GoalType     string     `json:"goalType"`
	TargetValue  int64      `json:"targetValue" binding:"required"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	RewardPoints int64      `json:"rewardPoints"`
}

func (s *GoalService) CreateGoal(ctx context.Context, req GoalRequest) (*model.CommunityGoal, error) {
	if req.TargetValue <= 0 {
		return nil, fmt.Errorf("%w: target value must be positive", util.ErrValidation)
	}
	if req.RewardPoints < 0 {
		return nil, fmt.Errorf("%w: reward points must not be negative", util.ErrValidation)
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", util.ErrValidation)
	}

	goal := &model.CommunityGoal{
		Title:        req.Title,
		Description:  req.Description,
		GoalType:     req.GoalType,
		TargetValue:  req.TargetValue,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		RewardPoints: req.RewardPoints,
		Status:       model.GoalActive,
	}
	if goal.GoalType == "" {
		goal.GoalType = "collective"
	}
	if goal.StartDate.IsZero() {
		goal.StartDate = time.Now()
	}
	if err := s.GoalRepo.Create(goal); err != nil {
		return nil, mapDBError(err)
	}
	return goal, nil
}

// UpdateGoal 仅允许修改进行中目标的描述性字段，
// target_value 和 current_value 在创建后不可变。
func (s *GoalService) UpdateGoal(ctx context.Context, id uint, req GoalRequest) (*model.CommunityGoal, error) {
	goal, err := s.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.Status != model.GoalActive {
		return nil, util.ErrGoalNotActive
	}
	if req.RewardPoints < 0 {
		return nil, fmt.Errorf("%w: reward points must not be negative", util.ErrValidation)
	}
	if req.EndDate != nil && !req.EndDate.After(goal.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", util.ErrValidation)
	}

	goal.Title = req.Title
	goal.Description = req.Description
	goal.EndDate = req.EndDate
	goal.RewardPoints = req.RewardPoints
	if err := s.GoalRepo.Save(goal); err != nil {
		return nil, mapDBError(err)
	}
	return goal, nil
}

func (s *GoalService) GetGoal(ctx context.Context, id uint) (*model.CommunityGoal, error) {
	goal, err := s.GoalRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGoalNotFound
		}
		return nil, mapDBError(err)
	}
	return goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context, status model.GoalStatus, page, limit int) ([]model.CommunityGoal, int64, error) {
	goals, total, err := s.GoalRepo.List(status, page, limit)
	return goals, total, mapDBError(err)
}

// Join 会员加入目标。重复加入由唯一索引兜底。
func (s *GoalService) Join(ctx context.Context, goalID, memberID uint) error {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.Status != model.GoalActive {
		return util.ErrGoalNotActive
	}

	member, err := s.MemberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrMemberNotFound
		}
		return mapDBError(err)
	}
	if !member.IsActive() {
		return util.ErrMemberNotActive
	}

	if _, err := s.GoalRepo.FindParticipant(s.DB.WithContext(ctx), goalID, memberID); err == nil {
		return util.ErrAlreadyParticipating
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return mapDBError(err)
	}

	err = s.GoalRepo.AddParticipant(&model.GoalParticipant{
		GoalID:   goalID,
		MemberID: memberID,
		JoinedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrAlreadyParticipating
		}
		return mapDBError(err)
	}
	return nil
}

// ContributionResult 单次贡献的结果
type ContributionResult struct {
	GoalID       uint  `json:"goalId"`
	Contribution int64 `json:"contribution"`
	CurrentValue int64 `json:"currentValue"`
	TargetValue  int64 `json:"targetValue"`
	Completed    bool  `json:"completed"`
}

// Contribute 记一笔贡献。参与者贡献与目标进度在同一事务内
// 以相同金额递增；达标时翻转状态并给所有参与者发放奖励。
// 发放按会员 ID 升序逐个加锁追加流水。
func (s *GoalService) Contribute(ctx context.Context, goalID, memberID uint, amount int64) (*ContributionResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: contribution must be positive", util.ErrValidation)
	}

	var result *ContributionResult
	var completedEvt *event.GoalCompleted

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goal, err := s.GoalRepo.LockByID(tx, goalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrGoalNotFound
			}
			return err
		}
		if goal.Status != model.GoalActive {
			return util.ErrGoalNotActive
		}

		participant, err := s.GoalRepo.FindParticipant(tx, goalID, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrNotParticipating
			}
			return err
		}

		if err := tx.Model(participant).
			Update("contribution", gorm.Expr("contribution + ?", amount)).Error; err != nil {
			return err
		}
		goal.CurrentValue += amount
		updates := map[string]interface{}{"current_value": goal.CurrentValue}

		completed := goal.Reached()
		if completed {
			now := time.Now()
			goal.Status = model.GoalCompleted
			goal.CompletionDate = &now
			updates["status"] = model.GoalCompleted
			updates["completion_date"] = now
		}
		if err := tx.Model(&model.CommunityGoal{}).Where("id = ?", goal.ID).Updates(updates).Error; err != nil {
			return err
		}

		if completed {
			n, err := s.payout(tx, goal)
			if err != nil {
				return err
			}
			evt := event.NewGoalCompleted(goal.ID, goal.CurrentValue, goal.RewardPoints, n)
			completedEvt = &evt
		}

		result = &ContributionResult{
			GoalID:       goal.ID,
			Contribution: amount,
			CurrentValue: goal.CurrentValue,
			TargetValue:  goal.TargetValue,
			Completed:    completed,
		}
		return nil
	})
	if err != nil {
		return nil, mapDBError(err)
	}

	if completedEvt != nil {
		s.Bus.Publish(ctx, *completedEvt)
	}
	return result, nil
}

// payout 给每个参与者发放奖励积分，返回参与者数量。
// 调用方持有目标行锁；会员行按 ID 升序加锁。
func (s *GoalService) payout(tx *gorm.DB, goal *model.CommunityGoal) (int, error) {
	if goal.RewardPoints <= 0 {
		participants, err := s.GoalRepo.Participants(tx, goal.ID)
		return len(participants), err
	}

	participants, err := s.GoalRepo.Participants(tx, goal.ID)
	if err != nil {
		return 0, err
	}
	for _, p := range participants {
		if _, err := s.MemberRepo.LockByID(tx, p.MemberID); err != nil {
			return 0, err
		}
		txn := &model.PointsTransaction{
			MemberID:     p.MemberID,
			Points:       goal.RewardPoints,
			Type:         model.TransactionEarned,
			ActivityType: model.ActivityCommunityGoal,
			Description:  fmt.Sprintf("Community goal completed: %s", goal.Title),
		}
		if err := s.LedgerRepo.Append(tx, txn); err != nil {
			return 0, err
		}
	}
	return len(participants), nil
}

// GoalProgress 目标进度读模型
type GoalProgress struct {
	Goal             *model.CommunityGoal    `json:"goal"`
	ParticipantCount int                     `json:"participantCount"`
	PercentComplete  float64                 `json:"percentComplete"`
	Participants     []model.GoalParticipant `json:"participants"`
}

func (s *GoalService) GetProgress(ctx context.Context, goalID uint) (*GoalProgress, error) {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	participants, err := s.GoalRepo.Participants(s.DB.WithContext(ctx), goalID)
	if err != nil {
		return nil, mapDBError(err)
	}

	percent := float64(0)
	if goal.TargetValue > 0 {
		percent = float64(goal.CurrentValue) / float64(goal.TargetValue) * 100
		if percent > 100 {
			percent = 100
		}
	}
	return &GoalProgress{
		Goal:             goal,
		ParticipantCount: len(participants),
		PercentComplete:  percent,
		Participants:     participants,
	}, nil
}

// FailExpired 将已过截止且未达标的目标标记为失败。外部调度触发，幂等。
func (s *GoalService) FailExpired(ctx context.Context, now time.Time) (int64, error) {
	affected, err := s.GoalRepo.FailExpired(now)
	return affected, mapDBError(err)
}
