//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/event"
)

func TestMessageStoreQueryRanges(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		evt := event.New("exec-a", event.TypeExecutionLog)
		evt.Sequence = uint64(i)
		require.NoError(t, store.Append(ctx, evt))
	}

	all, err := store.Query(ctx, "exec-a", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	window, err := store.Query(ctx, "exec-a", 2, 4)
	require.NoError(t, err)
	require.Len(t, window, 3, "the range is inclusive on both ends")
	assert.Equal(t, uint64(2), window[0].Sequence)
	assert.Equal(t, uint64(4), window[2].Sequence)

	tail, err := store.Query(ctx, "exec-a", 4, 0)
	require.NoError(t, err)
	assert.Len(t, tail, 2, "to == 0 is unbounded")

	none, err := store.Query(ctx, "exec-other", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessageStoreClonesOnAppend(t *testing.T) {
	store := NewMessageStore()
	evt := event.New("exec-a", event.TypeExecutionLog,
		event.WithPayload(map[string]any{event.KeyMessage: "original"}))
	require.NoError(t, store.Append(context.Background(), evt))

	evt.Payload[event.KeyMessage] = "mutated"
	got, err := store.Query(context.Background(), "exec-a", 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Payload[event.KeyMessage],
		"stored events are isolated from caller mutation")
}

func TestSinkPersistsBusEvents(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	store := NewMessageStore()
	sink := NewSink(bus, store)

	bus.Publish(event.New("exec-a", event.TypeExecutionStarted))
	bus.Publish(event.New("exec-b", event.TypeExecutionStarted))

	require.Eventually(t, func() bool {
		a, _ := store.Query(context.Background(), "exec-a", 0, 0)
		b, _ := store.Query(context.Background(), "exec-b", 0, 0)
		return len(a) == 1 && len(b) == 1
	}, time.Second, 5*time.Millisecond)

	sink.Close()
	ids := store.Executions()
	require.Len(t, ids, 2)
	assert.ElementsMatch(t,
		[]string{"exec-a", "exec-b"},
		[]string{string(ids[0]), string(ids[1])})
}

func TestKeyStore(t *testing.T) {
	ctx := context.Background()
	store := NewKeyStore(map[diagram.APIKeyID]string{"openai-main": "sk-seeded"})

	secret, err := store.Get(ctx, "openai-main")
	require.NoError(t, err)
	assert.Equal(t, "sk-seeded", secret)

	store.Set("anthropic", "sk-set")
	secret, err = store.Get(ctx, "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-set", secret)

	t.Setenv("DIPEO_APIKEY_FROM_ENV", "sk-env")
	secret, err = store.Get(ctx, "from-env")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", secret, "dashes map to underscores in the env name")

	_, err = store.Get(ctx, "missing")
	require.Error(t, err)
}
