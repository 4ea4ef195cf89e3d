package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_PublishesToSubjectChannel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, Channel(7))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(rdb)
	require.NoError(t, pub.Publish(ctx, New(TypeFriendshipRequested, 3, 7)))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "events:person:7", msg.Channel)
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, TypeFriendshipRequested, got.Type)
		assert.Equal(t, uint(3), got.ActorID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestKafkaPublisher_TopicAndMessage(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "gyma.")
	assert.Equal(t, "gyma.friendship", p.Topic(TypeFriendshipBlocked))
	assert.Equal(t, "gyma.gyma", p.Topic(TypeGymaCompleted))

	ev := New(TypeGymaCompleted, 4, 4)
	ev.GymaID = 12
	msg, err := message(ev)
	require.NoError(t, err)
	assert.Equal(t, "4", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TypeGymaCompleted, string(msg.Headers[0].Value))
	assert.Contains(t, string(msg.Value), `"gyma_id":12`)

	assert.Same(t, p.writerForTopic("gyma.gyma"), p.writerForTopic("gyma.gyma"))
	assert.NoError(t, p.Close())
}
