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

// LedgerService 积分账本的写入口。所有写路径在会员行锁内
// 追加流水并同步物化余额，余额永远等于带符号流水之和。
type LedgerService struct {
	MemberRepo *repository.MemberRepository
	LedgerRepo *repository.LedgerRepository
	Bus        *event.Bus
	DB         *gorm.DB
}

func NewLedgerService(memberRepo *repository.MemberRepository, ledgerRepo *repository.LedgerRepository, bus *event.Bus, db *gorm.DB) *LedgerService {
	return &LedgerService{MemberRepo: memberRepo, LedgerRepo: ledgerRepo, Bus: bus, DB: db}
}

// Redeem 扣减积分兑换奖励。余额检查在行锁内完成，
// 余额不足时整个事务回滚，不留任何写入。
func (s *LedgerService) Redeem(ctx context.Context, memberID uint, points int64, description string) (*model.PointsTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: redemption amount must be positive", util.ErrValidation)
	}

	txn := &model.PointsTransaction{
		MemberID:     memberID,
		Points:       points,
		Type:         model.TransactionRedeemed,
		ActivityType: model.ActivityRedemption,
		Description:  description,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.MemberRepo.LockByID(tx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrMemberNotFound
			}
			return err
		}
		if !member.IsActive() {
			return util.ErrMemberNotActive
		}
		if member.PointsBalance < points {
			return fmt.Errorf("%w: balance %d, requested %d", util.ErrInsufficientBalance, member.PointsBalance, points)
		}
		return s.LedgerRepo.Append(tx, txn)
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	s.Bus.Publish(ctx, event.NewPointsAwarded(memberID, txn.SignedAmount(), txn.ActivityType, txn.ID))
	return txn, nil
}

// Adjust 管理员上调积分。adjusted 类型计正向金额；
// 下调走 Expire，保持流水只增语义。actorID 记录操作人。
func (s *LedgerService) Adjust(ctx context.Context, memberID uint, points int64, reason string, actorID uint) (*model.PointsTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: adjustment amount must be positive", util.ErrValidation)
	}
	return s.append(ctx, memberID, points, model.TransactionAdjusted, model.ActivityAdjustment, reason, actorID)
}

// Expire 管理员扣减积分（过期或下调修正）。允许余额变负，
// 过期是对历史的记账而不是兑换。actorID 记录操作人。
func (s *LedgerService) Expire(ctx context.Context, memberID uint, points int64, reason string, actorID uint) (*model.PointsTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: expiration amount must be positive", util.ErrValidation)
	}
	return s.append(ctx, memberID, points, model.TransactionExpired, model.ActivityExpiration, reason, actorID)
}

func (s *LedgerService) append(ctx context.Context, memberID uint, points int64, txnType model.TransactionType, activityType, description string, actorID uint) (*model.PointsTransaction, error) {
	txn := &model.PointsTransaction{
		MemberID:     memberID,
		Points:       points,
		Type:         txnType,
		ActivityType: activityType,
		Description:  description,
		ActorID:      actorID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.MemberRepo.LockByID(tx, memberID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrMemberNotFound
			}
			return err
		}
		return s.LedgerRepo.Append(tx, txn)
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	s.Bus.Publish(ctx, event.NewPointsAwarded(memberID, txn.SignedAmount(), txn.ActivityType, txn.ID))
	return txn, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, memberID uint) (int64, error) {
	member, err := s.MemberRepo.FindByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrMemberNotFound
		}
		return 0, mapDBError(err)
	}
	return member.PointsBalance, nil
}

func (s *LedgerService) GetHistory(ctx context.Context, memberID uint, f repository.HistoryFilter) ([]model.PointsTransaction, int64, error) {
	if f.Type != "" && !model.ValidTransactionType(f.Type) {
		return nil, 0, fmt.Errorf("%w: unknown transaction type %q", util.ErrValidation, f.Type)
	}
	txns, total, err := s.LedgerRepo.History(memberID, f)
	return txns, total, mapDBError(err)
}
