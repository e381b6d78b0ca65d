package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MemberService struct {
	MemberRepo      *repository.MemberRepository
	LedgerRepo      *repository.LedgerRepository
	StreakRepo      *repository.StreakRepository
	AchievementRepo *repository.AchievementRepository
	GoalRepo        *repository.GoalRepository
	DB              *gorm.DB
}

func NewMemberService(
	memberRepo *repository.MemberRepository,
	ledgerRepo *repository.LedgerRepository,
	streakRepo *repository.StreakRepository,
	achievementRepo *repository.AchievementRepository,
	goalRepo *repository.GoalRepository,
	db *gorm.DB,
) *MemberService {
	return &MemberService{
		MemberRepo:      memberRepo,
		LedgerRepo:      ledgerRepo,
		StreakRepo:      streakRepo,
		AchievementRepo: achievementRepo,
		GoalRepo:        goalRepo,
		DB:              db,
	}
}

type RegisterRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	MembershipTier string `json:"membershipTier"`
}

func (s *MemberService) Register(ctx context.Context, req RegisterRequest) (*model.Member, error) {
	tier := model.MembershipTier(req.MembershipTier)
	if tier == "" {
		tier = model.TierStandard
	}
	if !model.ValidTier(tier) {
		return nil, fmt.Errorf("%w: unknown membership tier %q", util.ErrValidation, req.MembershipTier)
	}

	if _, err := s.MemberRepo.FindByEmail(req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", util.ErrValidation)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mapDBError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	member := &model.Member{
		Name:           req.Name,
		Email:          req.Email,
		CredentialHash: string(hash),
		Role:           model.RoleMember,
		MembershipTier: tier,
		Status:         model.MemberActive,
		JoinDate:       time.Now(),
	}
	if err := s.MemberRepo.Create(member); err != nil {
		return nil, mapDBError(err)
	}
	return member, nil
}

func (s *MemberService) GetMember(ctx context.Context, id uint) (*model.Member, error) {
	member, err := s.MemberRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMemberNotFound
		}
		return nil, mapDBError(err)
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, page, limit int) ([]model.Member, int64, error) {
	members, total, err := s.MemberRepo.List(page, limit)
	return members, total, mapDBError(err)
}

// UpdateStatus 管理员变更会员状态。流水存在时会员永不硬删，
// 停用 / 冻结通过状态完成。
func (s *MemberService) UpdateStatus(ctx context.Context, id uint, status model.MemberStatus) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("%w: unknown member status %q", util.ErrValidation, status)
	}
	if _, err := s.GetMember(ctx, id); err != nil {
		return err
	}
	return mapDBError(s.MemberRepo.UpdateStatus(id, status))
}

// Dashboard 会员概览，聚合余额、streak、成就数与进行中的目标
type Dashboard struct {
	Member           *model.Member           `json:"member"`
	PointsBalance    int64                   `json:"pointsBalance"`
	LifetimeEarned   int64                   `json:"lifetimeEarned"`
	CurrentStreak    int                     `json:"currentStreak"`
	LongestStreak    int                     `json:"longestStreak"`
	AchievementCount int64                   `json:"achievementCount"`
	ActiveGoals      []model.GoalParticipant `json:"activeGoals"`
}

func (s *MemberService) GetDashboard(ctx context.Context, memberID uint) (*Dashboard, error) {
	member, err := s.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	earned, err := s.LedgerRepo.EarnedTotal(s.DB.WithContext(ctx), memberID)
	if err != nil {
		return nil, mapDBError(err)
	}

	d := &Dashboard{
		Member:         member,
		PointsBalance:  member.PointsBalance,
		LifetimeEarned: earned,
	}

	streak, err := s.StreakRepo.FindByMember(s.DB.WithContext(ctx), memberID)
	switch {
	case err == nil:
		d.CurrentStreak = streak.CurrentStreak
		d.LongestStreak = streak.LongestStreak
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, mapDBError(err)
	}

	if d.AchievementCount, err = s.AchievementRepo.CountUnlocks(s.DB.WithContext(ctx), memberID); err != nil {
		return nil, mapDBError(err)
	}

	if d.ActiveGoals, err = s.GoalRepo.ActiveParticipations(memberID); err != nil {
		return nil, mapDBError(err)
	}

	return d, nil
}
