package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"mkwa_fitness_backend/internal/config"
	"mkwa_fitness_backend/internal/model"
	"mkwa_fitness_backend/internal/repository"
	"mkwa_fitness_backend/internal/util"
	"mkwa_fitness_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardService 排行榜投影器。条目是纯读模型，从流水 /
// streak / 活动表按需重算，不落库。整榜 JSON 缓存在 Redis：
// 复合平分决胜规则放不进 ZSET 的单一 score，所以缓存序列化
// 后的完整投影。eager 模式靠事件订阅失效，lazy 模式靠 TTL。
type LeaderboardService struct {
	LeaderboardRepo *repository.LeaderboardRepository
	RDB             *redis.Client
	Cfg             config.LeaderboardConfig
}

func NewLeaderboardService(leaderboardRepo *repository.LeaderboardRepository, rdb *redis.Client, cfg config.LeaderboardConfig) *LeaderboardService {
	return &LeaderboardService{LeaderboardRepo: leaderboardRepo, RDB: rdb, Cfg: cfg}
}

type LeaderboardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"required"`
	Period      string `json:"period" binding:"required"`
}

func (s *LeaderboardService) CreateLeaderboard(ctx context.Context, req LeaderboardRequest) (*model.Leaderboard, error) {
	lbType := model.LeaderboardType(req.Type)
	period := model.LeaderboardPeriod(req.Period)
	if !model.ValidLeaderboardType(lbType) {
		return nil, fmt.Errorf("%w: unknown leaderboard type %q", util.ErrValidation, req.Type)
	}
	if !model.ValidLeaderboardPeriod(period) {
		return nil, fmt.Errorf("%w: unknown leaderboard period %q", util.ErrValidation, req.Period)
	}

	lb := &model.Leaderboard{
		Name:        req.Name,
		Description: req.Description,
		Type:        lbType,
		Period:      period,
		IsActive:    true,
	}
	if err := s.LeaderboardRepo.Create(lb); err != nil {
		return nil, mapDBError(err)
	}
	return lb, nil
}

func (s *LeaderboardService) ListLeaderboards(ctx context.Context) ([]model.Leaderboard, error) {
	lbs, err := s.LeaderboardRepo.List()
	return lbs, mapDBError(err)
}

// Entry 排行榜条目。名次 1 起且连续，平分按最早得分时间、
// 再按会员 ID 决出确定顺序。
type Entry struct {
	Rank     int    `json:"rank"`
	MemberID uint   `json:"memberId"`
	Name     string `json:"name"`
	Score    int64  `json:"score"`
}

// LeaderboardView 分页后的排行榜读模型
type LeaderboardView struct {
	Leaderboard *model.Leaderboard `json:"leaderboard"`
	Entries     []Entry            `json:"entries"`
	Total       int                `json:"total"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

type cachedProjection struct {
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, id uint, page, limit int) (*LeaderboardView, error) {
	lb, err := s.LeaderboardRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLeaderboardNotFound
		}
		return nil, mapDBError(err)
	}

	proj, err := s.projection(ctx, lb)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.Cfg.PageSize
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(proj.Entries) {
		start = len(proj.Entries)
	}
	if end > len(proj.Entries) {
		end = len(proj.Entries)
	}

	return &LeaderboardView{
		Leaderboard: lb,
		Entries:     proj.Entries[start:end],
		Total:       len(proj.Entries),
		GeneratedAt: proj.GeneratedAt,
	}, nil
}

func (s *LeaderboardService) projection(ctx context.Context, lb *model.Leaderboard) (*cachedProjection, error) {
	key := cacheKey(lb.ID)

	if s.RDB != nil {
		raw, err := s.RDB.Get(ctx, key).Result()
		if err == nil {
			var cached cachedProjection
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Uint("leaderboard", lb.ID), zap.Error(err))
		}
	}

	entries, err := s.compute(lb)
	if err != nil {
		return nil, mapDBError(err)
	}
	proj := &cachedProjection{Entries: entries, GeneratedAt: time.Now()}

	if s.RDB != nil {
		ttl := time.Duration(0)
		if s.Cfg.Mode != "eager" {
			ttl = time.Duration(s.Cfg.StalenessToleranceSeconds) * time.Second
		}
		if payload, err := json.Marshal(proj); err == nil {
			if err := s.RDB.Set(ctx, key, payload, ttl).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Uint("leaderboard", lb.ID), zap.Error(err))
			}
		}
	}
	return proj, nil
}

func (s *LeaderboardService) compute(lb *model.Leaderboard) ([]Entry, error) {
	since := periodStart(lb.Period, time.Now())

	var rows []repository.ScoreRow
	var err error
	switch lb.Type {
	case model.LeaderboardPoints:
		rows, err = s.LeaderboardRepo.PointsScores(since)
	case model.LeaderboardStreak:
		rows, err = s.LeaderboardRepo.StreakScores()
	case model.LeaderboardActivities:
		rows, err = s.LeaderboardRepo.ActivityScores(since)
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard type %q", util.ErrValidation, lb.Type)
	}
	if err != nil {
		return nil, err
	}
	return rankRows(rows), nil
}

// Invalidate 丢弃所有榜的缓存投影。eager 模式下由积分 / streak /
// 目标事件触发。
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.RDB == nil {
		return
	}
	lbs, err := s.LeaderboardRepo.List()
	if err != nil {
		logger.Log.Warn("leaderboard invalidation skipped", zap.Error(err))
		return
	}
	for _, lb := range lbs {
		if err := s.RDB.Del(ctx, cacheKey(lb.ID)).Err(); err != nil {
			logger.Log.Warn("leaderboard cache delete failed", zap.Uint("leaderboard", lb.ID), zap.Error(err))
		}
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("mkwa:leaderboard:%d", id)
}

// rankRows 排序并编名次。score 降序，平分按最早得分时间升序，
// 再按会员 ID 升序；名次 1 起连续递增。
func rankRows(rows []repository.ScoreRow) []Entry {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		if !rows[i].FirstAt.Equal(rows[j].FirstAt) {
			return rows[i].FirstAt.Before(rows[j].FirstAt)
		}
		return rows[i].MemberID < rows[j].MemberID
	})

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			Rank:     i + 1,
			MemberID: row.MemberID,
			Name:     row.Name,
			Score:    row.Score,
		}
	}
	return entries
}

// periodStart 时间窗起点。周榜从周一零点起算，月榜从当月一号，
// 总榜返回零值表示不设窗口。
func periodStart(period model.LeaderboardPeriod, now time.Time) time.Time {
	switch period {
	case model.PeriodWeekly:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case model.PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}
