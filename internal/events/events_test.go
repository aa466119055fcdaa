package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/lootable/internal/events"
	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/pocket"
	"github.com/cory-johannsen/lootable/internal/game/randomloot"
	"github.com/cory-johannsen/lootable/internal/host"
	"github.com/cory-johannsen/lootable/internal/testutil"
)

type mockPocket struct{ mock.Mock }

func (m *mockPocket) OnTokenCreated(ctx context.Context, e host.TokenCreated) pocket.Outcome {
	return m.Called(ctx, e).Get(0).(pocket.Outcome)
}

type mockLoot struct{ mock.Mock }

func (m *mockLoot) OnTokenCreated(ctx context.Context, e host.TokenCreated) randomloot.Outcome {
	return m.Called(ctx, e).Get(0).(randomloot.Outcome)
}

func (m *mockLoot) HandleManualRoll(ctx context.Context, token host.Token, userIsGM bool) randomloot.Outcome {
	return m.Called(ctx, token, userIsGM).Get(0).(randomloot.Outcome)
}

func envelope(t *testing.T, eventType string, v any) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	data, err := json.Marshal(events.Envelope{Type: eventType, Payload: payload})
	require.NoError(t, err)
	return data
}

func tokenCreated() host.TokenCreated {
	return host.TokenCreated{
		Token:        host.Token{ID: "tok-1", Name: "Bandit"},
		CreatorID:    "gm",
		ActingUserID: "gm",
		ActingIsGM:   true,
	}
}

func TestDispatch_TokenCreatedRunsPocketThenLoot(t *testing.T) {
	pc := &mockPocket{}
	rl := &mockLoot{}
	var order []string
	e := tokenCreated()
	pc.On("OnTokenCreated", mock.Anything, e).Run(func(mock.Arguments) { order = append(order, "pocket") }).Return(pocket.Outcome{})
	rl.On("OnTokenCreated", mock.Anything, e).Run(func(mock.Arguments) { order = append(order, "loot") }).Return(randomloot.Outcome{})

	d := events.NewDispatcher(pc, rl, zap.NewNop())
	require.NoError(t, d.Dispatch(context.Background(), envelope(t, events.TypeTokenCreated, e)))

	assert.Equal(t, []string{"pocket", "loot"}, order)
	pc.AssertExpectations(t)
	rl.AssertExpectations(t)
}

func TestDispatch_ManualRoll(t *testing.T) {
	pc := &mockPocket{}
	rl := &mockLoot{}
	tok := host.Token{ID: "tok-2", Name: "Ogre"}
	rl.On("HandleManualRoll", mock.Anything, tok, true).Return(randomloot.Outcome{Skipped: true, Reason: randomloot.SkipNoRule})

	d := events.NewDispatcher(pc, rl, zap.NewNop())
	require.NoError(t, d.Dispatch(context.Background(), envelope(t, events.TypeManualRoll, events.ManualRoll{Token: tok, UserIsGM: true})))

	rl.AssertExpectations(t)
	pc.AssertNotCalled(t, "OnTokenCreated", mock.Anything, mock.Anything)
}

func TestDispatch_Rejects(t *testing.T) {
	d := events.NewDispatcher(&mockPocket{}, &mockLoot{}, zap.NewNop())
	ctx := context.Background()

	assert.Error(t, d.Dispatch(ctx, []byte("not json")))
	assert.ErrorIs(t, d.Dispatch(ctx, envelope(t, "token_deleted", struct{}{})), events.ErrUnknownEvent)
	bad, err := json.Marshal(events.Envelope{Type: events.TypeTokenCreated, Payload: json.RawMessage(`"oops"`)})
	require.NoError(t, err)
	assert.Error(t, d.Dispatch(ctx, bad))
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	client, _ := testutil.NewRedis(t)
	return client
}

func waitSubscribed(t *testing.T, client *redis.Client, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(context.Background(), channel).Result()
		return err == nil && n[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriber_DispatchesPublishedEvents(t *testing.T) {
	client := newRedis(t)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	pc := &mockPocket{}
	rl := &mockLoot{}
	e := tokenCreated()
	handled := make(chan struct{})
	pc.On("OnTokenCreated", mock.Anything, e).Return(pocket.Outcome{})
	rl.On("OnTokenCreated", mock.Anything, e).Run(func(mock.Arguments) { close(handled) }).Return(randomloot.Outcome{})

	sub := events.NewSubscriber(client, "lootable:events", events.NewDispatcher(pc, rl, logger), logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()
	waitSubscribed(t, client, "lootable:events")

	require.NoError(t, client.Publish(ctx, "lootable:events", "garbage").Err())
	require.NoError(t, events.Publish(ctx, client, "lootable:events", events.TypeTokenCreated, e))

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not dispatched")
	}
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, logs.FilterMessage("dropping event").Len())
}

func TestChatPublisher_Post(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	sub := client.Subscribe(ctx, "lootable:chat")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	chat := events.NewChatPublisher(client, "lootable:chat")
	msg := host.Message{Kind: host.MessageCoin, TokenName: "Bandit", Coins: currency.Amount{GP: 3}}
	require.NoError(t, chat.Post(ctx, msg))

	select {
	case m := <-sub.Channel():
		var got host.Message
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &got))
		assert.Equal(t, msg, got)
	case <-time.After(2 * time.Second):
		t.Fatal("chat message not received")
	}
}
