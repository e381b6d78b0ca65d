package event

import (
	"context"
	"encoding/json"
	"sync"

	"mkwa_fitness_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Handler 进程内订阅者。在发布方 goroutine 里同步执行，
// 不得长时间阻塞；失败只记录，不影响已提交的业务操作。
type Handler func(ctx context.Context, evt Event)

// Bus 进程内事件总线。除本地分发外，事件会序列化后发布到
// Redis 频道 mkwa:events:<name>，供站外通知 / 分析消费方订阅，
// at-least-once，尽力而为。
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	rdb      *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		rdb:      rdb,
	}
}

// Subscribe 注册订阅者，装配期调用
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish 在调用方已提交事务之后调用
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.handlers[evt.Name()]
	b.mu.RUnlock()

	for _, h := range subs {
		h(ctx, evt)
	}

	if b.rdb == nil {
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Error("event marshal failed", zap.String("event", evt.Name()), zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, "mkwa:events:"+evt.Name(), payload).Err(); err != nil {
		logger.Log.Warn("event publish failed", zap.String("event", evt.Name()), zap.Error(err))
	}
}
