package event

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"mkwa_fitness_backend/pkg/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestPublishDispatchesToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var got []Event
	bus.Subscribe("points_awarded", func(ctx context.Context, evt Event) {
		got = append(got, evt)
	})

	evt := NewPointsAwarded(7, 25, "gym_visit", 42)
	bus.Publish(context.Background(), evt)

	if len(got) != 1 {
		t.Fatalf("handler invocations = %d, want 1", len(got))
	}
	awarded, ok := got[0].(PointsAwarded)
	if !ok {
		t.Fatalf("event type = %T, want PointsAwarded", got[0])
	}
	if awarded.MemberID != 7 || awarded.Points != 25 || awarded.TransactionID != 42 {
		t.Errorf("event payload = %+v", awarded)
	}
	if awarded.EventID() == "" || awarded.OccurredAt().IsZero() {
		t.Errorf("event metadata missing: id=%q time=%v", awarded.EventID(), awarded.OccurredAt())
	}
}

func TestPublishSkipsUnrelatedSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var streakCalls, pointsCalls int
	bus.Subscribe("streak_updated", func(ctx context.Context, evt Event) { streakCalls++ })
	bus.Subscribe("points_awarded", func(ctx context.Context, evt Event) { pointsCalls++ })

	bus.Publish(context.Background(), NewStreakUpdated(1, 3, 5))

	if streakCalls != 1 || pointsCalls != 0 {
		t.Errorf("streak=%d points=%d, want 1/0", streakCalls, pointsCalls)
	}
}

func TestPublishInvokesAllHandlersInOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Subscribe("goal_completed", func(ctx context.Context, evt Event) {
			order = append(order, i)
		})
	}

	bus.Publish(context.Background(), NewGoalCompleted(1, 110, 50, 2))

	if len(order) != 3 {
		t.Fatalf("handler invocations = %d, want 3", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("invocation order = %v, want subscription order", order)
			break
		}
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil)
	// 无订阅者、无 redis 时发布不产生副作用
	bus.Publish(context.Background(), NewAchievementAwarded(1, 2, "First Visit", 25))
}
