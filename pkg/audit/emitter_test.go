package audit_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectauth/pkg/audit"
	"github.com/dmitrymomot/projectauth/pkg/roles"
)

func memberRole() *roles.ProjectRole {
	r := roles.RoleMember
	return &r
}

func TestLogEmitter_Emit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	emitter := audit.NewLogEmitter(log)

	err := emitter.Emit(context.Background(), audit.Event{
		Type:         audit.EventMemberAdded,
		ActorID:      "u1",
		ProjectID:    "p1",
		TargetUserID: "u2",
		AfterRole:    memberRole(),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "member_added")
	assert.Contains(t, out, `"actor_id":"u1"`)
	assert.Contains(t, out, `"after_role":"member"`)
	assert.NotContains(t, out, "before_role")
}

func TestLogEmitter_Emit_Invalid(t *testing.T) {
	t.Parallel()

	emitter := audit.NewLogEmitter(nil)
	err := emitter.Emit(context.Background(), audit.Event{Type: audit.EventMemberAdded})
	assert.ErrorIs(t, err, audit.ErrInvalidEvent)
}

func TestRecorder_CapturesInOrder(t *testing.T) {
	t.Parallel()

	rec := audit.NewRecorder()
	for _, typ := range []audit.EventType{audit.EventMemberAdded, audit.EventRoleChanged, audit.EventMemberRemoved} {
		err := rec.Emit(context.Background(), audit.Event{
			Type: typ, ActorID: "u1", ProjectID: "p1", TargetUserID: "u2",
		})
		require.NoError(t, err)
	}

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, audit.EventMemberAdded, events[0].Type)
	assert.Equal(t, audit.EventRoleChanged, events[1].Type)
	assert.Equal(t, audit.EventMemberRemoved, events[2].Type)
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	rec := audit.NewRecorder()
	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.Emit(context.Background(), audit.Event{
				Type: audit.EventRoleChanged, ActorID: "a", ProjectID: "p", TargetUserID: "t",
			})
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Events(), 50)
}

func TestAsyncEmitter_DeliversAndFlushes(t *testing.T) {
	t.Parallel()

	rec := audit.NewRecorder()
	async := audit.NewAsyncEmitter(rec, nil, audit.AsyncOptions{BufferSize: 10})

	for n := 0; n < 5; n++ {
		err := async.Emit(context.Background(), audit.Event{
			Type: audit.EventMemberAdded, ActorID: "u1", ProjectID: "p1", TargetUserID: "u2",
		})
		require.NoError(t, err)
	}

	require.NoError(t, async.Close())
	assert.Len(t, rec.Events(), 5)
	assert.Zero(t, async.Dropped())
}

func TestAsyncEmitter_ClosedRejects(t *testing.T) {
	t.Parallel()

	async := audit.NewAsyncEmitter(audit.NewRecorder(), nil, audit.AsyncOptions{})
	require.NoError(t, async.Close())

	err := async.Emit(context.Background(), audit.Event{
		Type: audit.EventMemberAdded, ActorID: "u1", ProjectID: "p1",
	})
	assert.ErrorIs(t, err, audit.ErrEmitterClosed)
}

type blockingEmitter struct {
	release chan struct{}
	rec     *audit.Recorder
}

func (b *blockingEmitter) Emit(ctx context.Context, event audit.Event) error {
	<-b.release
	return b.rec.Emit(ctx, event)
}

func TestAsyncEmitter_DropsWhenFull(t *testing.T) {
	t.Parallel()

	blocking := &blockingEmitter{release: make(chan struct{}), rec: audit.NewRecorder()}
	async := audit.NewAsyncEmitter(blocking, nil, audit.AsyncOptions{BufferSize: 1, EmitTimeout: time.Second})

	// First event occupies the worker, second fills the buffer; anything
	// after that has to be dropped.
	dropped := 0
	for n := 0; n < 10; n++ {
		err := async.Emit(context.Background(), audit.Event{
			Type: audit.EventMemberAdded, ActorID: "u1", ProjectID: "p1",
		})
		if err != nil {
			assert.ErrorIs(t, err, audit.ErrBufferFull)
			dropped++
		}
	}
	assert.Greater(t, dropped, 0)
	assert.EqualValues(t, dropped, async.Dropped())

	close(blocking.release)
	require.NoError(t, async.Close())
}
