package topicreg

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicInsertAndEvents(t *testing.T) {
	top := NewTopic("chat")

	e1 := NewMsgEvent("chat", "hi", PriorityLow)
	top.InsertEvent(e1)

	got, ok := top.Event(e1.ID)
	require.True(t, ok)
	assert.Equal(t, "hi", got.Content)

	_, ok = top.Event(uuid.New())
	assert.False(t, ok)

	results := top.Events([]uuid.UUID{e1.ID, uuid.New()})
	require.Len(t, results, 1)
	assert.Equal(t, e1.ID, results[0].ID)
}

func TestTopicEvictOlderThan(t *testing.T) {
	top := NewTopic("chat")
	now := time.Now()

	fresh := MsgEvent{ID: uuid.New(), Topic: "chat", Content: "new", Timestamp: now}
	stale := MsgEvent{ID: uuid.New(), Topic: "chat", Content: "old", Timestamp: now.Add(-10 * time.Minute)}
	top.InsertEvent(fresh)
	top.InsertEvent(stale)

	evicted := top.EvictOlderThan(5*time.Minute, now)
	assert.Equal(t, 1, evicted)

	_, ok := top.Event(stale.ID)
	assert.False(t, ok)
	_, ok = top.Event(fresh.ID)
	assert.True(t, ok)
}

func TestSubscriberMetaUpdatePartial(t *testing.T) {
	meta := NewSubscriberMeta(ModePush, PriorityLow)

	high := PriorityHigh
	meta.Update(nil, &high)

	mode, priority := meta.Snapshot()
	assert.Equal(t, ModePush, mode)
	assert.Equal(t, PriorityHigh, priority)

	pull := ModePull
	meta.Update(&pull, nil)

	mode, priority = meta.Snapshot()
	assert.Equal(t, ModePull, mode)
	assert.Equal(t, PriorityHigh, priority)
}

func TestRegistryTopicLookup(t *testing.T) {
	reg := NewRegistry([]string{"chat", "news"})

	top, ok := reg.Topic("chat")
	require.True(t, ok)
	assert.Equal(t, "chat", top.Name)

	_, ok = reg.Topic("unknown")
	assert.False(t, ok)
}

func TestParsePriorityAndMode(t *testing.T) {
	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, p)

	_, err = ParsePriority("extreme")
	assert.Error(t, err)

	m, err := ParseMode("pull")
	require.NoError(t, err)
	assert.Equal(t, ModePull, m)

	assert.True(t, PriorityLow < PriorityMedium)
	assert.True(t, PriorityMedium < PriorityHigh)
}
