package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/credentials"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/hilthontt/huddle/internal/infrastructure/metrics"
	"github.com/hilthontt/huddle/internal/infrastructure/repository"
	"github.com/hilthontt/huddle/internal/infrastructure/scheduler"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.RoomEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.RoomEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.RoomEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.RoomEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type failingVerifier struct {
	hashErr   error
	verifyErr error
}

func (v failingVerifier) Hash(string, int) (string, error) {
	if v.hashErr != nil {
		return "", v.hashErr
	}
	return "digest", nil
}

func (v failingVerifier) Verify(string, string) (bool, error) {
	return false, v.verifyErr
}

type fixture struct {
	coord     *Coordinator
	repo      domain.RoomRepository
	sched     *scheduler.Scheduler
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	return newFixtureWithVerifier(t, credentials.NewBcryptVerifier(), delay)
}

func newFixtureWithVerifier(t *testing.T, verifier domain.CredentialVerifier, delay time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		repo:      repository.NewRoomRepository(),
		sched:     scheduler.New(),
		publisher: &recordingPublisher{},
		metrics:   metrics.Discard(),
	}
	f.coord = New(f.repo, verifier, f.sched, f.publisher, f.metrics, logging.NewNopLogger(), Options{
		BcryptCost:   bcrypt.MinCost,
		CleanupDelay: delay,
	})
	t.Cleanup(f.coord.Shutdown)
	return f
}

func creator(roomID, username string) JoinRequest {
	return JoinRequest{RoomID: roomID, Username: username, Password: "pass1234", IsCreator: true}
}

func joiner(roomID, username string) JoinRequest {
	return JoinRequest{RoomID: roomID, Username: username, Password: "pass1234"}
}

func TestCoordinator_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 50*time.Millisecond)

	created := f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1")
	require.True(t, created.Success, created.Message)
	assert.Equal(t, 1, created.MemberCount)
	assert.Equal(t, "Room R1", created.RoomData.Name)

	joined := f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2")
	require.True(t, joined.Success, joined.Message)
	assert.Equal(t, 2, joined.MemberCount)
	assert.Empty(t, joined.Messages)
	assert.Equal(t, []string{"alice", "bob"}, joined.RoomData.Members)

	sent := f.coord.SendMessage(ctx, "c2", domain.IncomingMessage{Username: "bob", Text: "hi"})
	require.True(t, sent.Success)
	assert.Equal(t, "R1", sent.RoomID)
	assert.NotEmpty(t, sent.Message.ID)
	assert.NotZero(t, sent.Message.Timestamp)
	assert.Equal(t, "hi", sent.Message.Text)

	_, left := f.coord.LeaveRoom(ctx, "c1", "R1")
	require.True(t, left)
	departure, left := f.coord.Disconnect(ctx, "c2")
	require.True(t, left)
	assert.Equal(t, domain.Departure{RoomID: "R1", Username: "bob", MemberCount: 0}, departure)

	// the empty room survives until the delay elapses
	_, ok := f.coord.GetRoomInfo(ctx, "R1")
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.RoomsDeleted.WithLabelValues(metrics.DeletedEmpty)) == 1
	}, time.Second, 10*time.Millisecond)

	_, ok = f.coord.GetRoomInfo(ctx, "R1")
	assert.False(t, ok)
	require.Eventually(t, func() bool { return len(f.publisher.types()) == 7 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.RoomEventType{
		domain.EventRoomCreated,
		domain.EventMemberJoined,
		domain.EventMemberJoined,
		domain.EventMessageSent,
		domain.EventMemberLeft,
		domain.EventMemberLeft,
		domain.EventRoomDeleted,
	}, f.publisher.types())
}

func TestCoordinator_JoinValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	tests := []struct {
		name   string
		req    JoinRequest
		reason domain.FailureReason
		msg    string
	}{
		{
			name:   "missing room id",
			req:    JoinRequest{Username: "bob", Password: "pass1234"},
			reason: domain.ReasonInvalidCredentials,
			msg:    "Invalid room credentials",
		},
		{
			name:   "missing username beats short password",
			req:    JoinRequest{RoomID: "R1", Password: "x"},
			reason: domain.ReasonInvalidCredentials,
		},
		{
			name:   "long username beats short password",
			req:    JoinRequest{RoomID: "R1", Username: strings.Repeat("u", 51), Password: "x"},
			reason: domain.ReasonInvalidUsername,
			msg:    "Username must be 1-50 characters",
		},
		{
			name:   "short password beats missing room",
			req:    JoinRequest{RoomID: "nope", Username: "bob", Password: "abc"},
			reason: domain.ReasonInvalidPassword,
			msg:    "Password must be 4-50 characters",
		},
		{
			name:   "password counted in UTF-16 units",
			req:    JoinRequest{RoomID: "R1", Username: "bob", Password: strings.Repeat("😀", 26)},
			reason: domain.ReasonInvalidPassword,
		},
		{
			name:   "existing room as creator",
			req:    creator("R1", "bob"),
			reason: domain.ReasonRoomAlreadyExists,
			msg:    "Room already exists",
		},
		{
			name:   "missing room as joiner",
			req:    joiner("R2", "bob"),
			reason: domain.ReasonRoomNotFound,
			msg:    "Room not found",
		},
		{
			name:   "wrong password",
			req:    JoinRequest{RoomID: "R1", Username: "bob", Password: "wrong-pass"},
			reason: domain.ReasonIncorrectPassword,
			msg:    "Incorrect password",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.coord.JoinRoom(ctx, tt.req, fmt.Sprintf("x%d", i))
			assert.False(t, result.Success)
			assert.Equal(t, tt.reason, result.Reason)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, result.Message)
			}
			assert.Nil(t, result.RoomData)
		})
	}

	info, ok := f.coord.GetRoomInfo(ctx, "R1")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, info.Members)
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(f.metrics.JoinAttempts.WithLabelValues(metrics.ResultFailure)))
}

func TestCoordinator_AuthenticationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("hashing", func(t *testing.T) {
		f := newFixtureWithVerifier(t, failingVerifier{hashErr: fmt.Errorf("%w: boom", domain.ErrHashing)}, time.Hour)

		result := f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1")
		assert.False(t, result.Success)
		assert.Equal(t, domain.ReasonAuthenticationFailed, result.Reason)
		assert.Equal(t, "Failed to create room", result.Message)
		assert.False(t, f.repo.Exists(ctx, "R1"))
	})

	t.Run("verification", func(t *testing.T) {
		f := newFixtureWithVerifier(t, failingVerifier{verifyErr: fmt.Errorf("%w: boom", domain.ErrVerification)}, time.Hour)
		require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

		result := f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2")
		assert.False(t, result.Success)
		assert.Equal(t, domain.ReasonAuthenticationFailed, result.Reason)
		assert.Equal(t, "Authentication failed", result.Message)
	})

	t.Run("unexpected", func(t *testing.T) {
		f := newFixtureWithVerifier(t, failingVerifier{hashErr: errors.New("boom")}, time.Hour)

		result := f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1")
		assert.Equal(t, domain.ReasonServerError, result.Reason)
		assert.Equal(t, "Unexpected error", result.Message)
	})
}

func TestCoordinator_ConcurrentCreatorsSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)

	const creators = 8
	results := make([]JoinResult, creators)

	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.coord.JoinRoom(ctx, creator("R1", fmt.Sprintf("user%d", i)), fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, r := range results {
		if r.Success {
			winners++
			continue
		}
		assert.Equal(t, domain.ReasonRoomAlreadyExists, r.Reason)
	}
	assert.Equal(t, 1, winners)

	info, ok := f.coord.GetRoomInfo(ctx, "R1")
	require.True(t, ok)
	assert.Len(t, info.Members, 1)
}

func TestCoordinator_RejoinRenames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)

	result := f.coord.JoinRoom(ctx, joiner("R1", "robert"), "c2")
	require.True(t, result.Success)
	assert.Equal(t, 2, result.MemberCount)
	assert.Equal(t, []string{"alice", "robert"}, result.RoomData.Members)
}

func TestCoordinator_JoinOtherRoomMovesConnection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 150*time.Millisecond)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	result := f.coord.JoinRoom(ctx, creator("R2", "alice"), "c1")
	require.True(t, result.Success)
	require.NotNil(t, result.Previous)
	assert.Equal(t, domain.Departure{RoomID: "R1", Username: "alice", MemberCount: 0}, *result.Previous)

	assert.True(t, f.sched.Pending("R1"))
	require.Eventually(t, func() bool {
		return !f.repo.Exists(ctx, "R1")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, f.repo.Exists(ctx, "R2"))

	member, ok := f.coord.Typing(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "R2", member.RoomID)
}

func TestCoordinator_JoinCancelsPendingCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 80*time.Millisecond)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	_, ok := f.coord.Disconnect(ctx, "c1")
	require.True(t, ok)
	require.True(t, f.sched.Pending("R1"))

	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)
	assert.False(t, f.sched.Pending("R1"))

	assert.Never(t, func() bool {
		return !f.repo.Exists(ctx, "R1")
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestCoordinator_CleanupRechecksMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	// fire the task directly while the room is occupied
	f.coord.cleanup("R1")
	assert.True(t, f.repo.Exists(ctx, "R1"))

	f.coord.Disconnect(ctx, "c1")
	f.coord.cleanup("R1")
	assert.False(t, f.repo.Exists(ctx, "R1"))
}

func TestCoordinator_LeaveAndDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)

	_, removed := f.coord.LeaveRoom(ctx, "c2", "other")
	assert.False(t, removed)

	departure, removed := f.coord.LeaveRoom(ctx, "c2", "R1")
	require.True(t, removed)
	assert.Equal(t, 1, departure.MemberCount)
	assert.False(t, f.sched.Pending("R1"))

	_, removed = f.coord.LeaveRoom(ctx, "c2", "R1")
	assert.False(t, removed)
	_, removed = f.coord.Disconnect(ctx, "c2")
	assert.False(t, removed)

	// a departed connection can no longer send
	assert.False(t, f.coord.SendMessage(ctx, "c2", domain.IncomingMessage{Username: "bob", Text: "hi"}).Success)

	departure, removed = f.coord.Disconnect(ctx, "c1")
	require.True(t, removed)
	assert.Equal(t, "R1", departure.RoomID)
	assert.True(t, f.sched.Pending("R1"))
}

func TestCoordinator_LeaveWithoutRoomIDUsesCurrentRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	_, removed := f.coord.LeaveRoom(ctx, "stranger", "")
	assert.False(t, removed)

	departure, removed := f.coord.LeaveRoom(ctx, "c1", "")
	require.True(t, removed)
	assert.Equal(t, domain.Departure{RoomID: "R1", Username: "alice", MemberCount: 0}, departure)
	assert.True(t, f.sched.Pending("R1"))

	room, ok := f.coord.GetRoomInfo(ctx, "R1")
	require.True(t, ok)
	assert.Empty(t, room.Members)
}

func TestCoordinator_SendRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	tests := []struct {
		name string
		conn string
		text string
	}{
		{name: "not in a room", conn: "stranger", text: "hi"},
		{name: "empty", conn: "c1", text: ""},
		{name: "whitespace only", conn: "c1", text: " \n\t "},
		{name: "too long", conn: "c1", text: strings.Repeat("a", domain.MaxTextLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.coord.SendMessage(ctx, tt.conn, domain.IncomingMessage{Username: "alice", Text: tt.text})
			assert.False(t, result.Success)
			assert.Nil(t, result.Message)
		})
	}

	room, err := f.repo.GetByID(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, room.Messages())
}

func TestCoordinator_SendKeepsSuppliedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	text := "  " + strings.Repeat("b", domain.MaxTextLength-2)
	result := f.coord.SendMessage(ctx, "c1", domain.IncomingMessage{ID: "m-1", Username: "alice", Text: text, Timestamp: 42})
	require.True(t, result.Success)
	assert.Equal(t, domain.Message{ID: "m-1", Username: "alice", Text: text, Timestamp: 42}, *result.Message)

	later := f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2")
	require.True(t, later.Success)
	assert.Equal(t, []domain.Message{*result.Message}, later.Messages)
}

func TestCoordinator_SendOrderMatchesTranscript(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)

	for i := 0; i < 20; i++ {
		conn := "c1"
		if i%2 == 1 {
			conn = "c2"
		}
		require.True(t, f.coord.SendMessage(ctx, conn, domain.IncomingMessage{ID: fmt.Sprintf("m%d", i), Text: "x"}).Success)
	}

	room, err := f.repo.GetByID(ctx, "R1")
	require.NoError(t, err)
	messages := room.Messages()
	require.Len(t, messages, 20)
	for i, m := range messages {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.ID)
	}
}

func TestCoordinator_DeleteRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	f.coord.Disconnect(ctx, "c1")
	require.True(t, f.sched.Pending("R1"))

	f.coord.DeleteRoom(ctx, "R1")
	assert.False(t, f.sched.Pending("R1"))
	_, ok := f.coord.GetRoomInfo(ctx, "R1")
	assert.False(t, ok)

	// idempotent
	f.coord.DeleteRoom(ctx, "R1")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RoomsDeleted.WithLabelValues(metrics.DeletedExplicit)))

	// the ID is free again
	assert.True(t, f.coord.JoinRoom(ctx, creator("R1", "carol"), "c3").Success)
}

func TestCoordinator_DeleteRoomScrubsMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)

	f.coord.DeleteRoom(ctx, "R1")

	_, ok := f.coord.Typing(ctx, "c1")
	assert.False(t, ok)
	assert.False(t, f.coord.SendMessage(ctx, "c1", domain.IncomingMessage{Text: "hi"}).Success)
	_, removed := f.coord.Disconnect(ctx, "c1")
	assert.False(t, removed)
}

func TestCoordinator_RecipientsAndShutdown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)
	require.True(t, f.coord.JoinRoom(ctx, creator("R2", "carol"), "c3").Success)

	assert.Equal(t, []string{"c1", "c2"}, f.coord.Recipients(ctx, "R1"))
	assert.Nil(t, f.coord.Recipients(ctx, "missing"))

	f.coord.Disconnect(ctx, "c3")
	require.Equal(t, 1, f.sched.Len())
	f.coord.Shutdown()
	assert.Equal(t, 0, f.sched.Len())
}

func TestCoordinator_ConcurrentSendAndDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Hour)
	require.True(t, f.coord.JoinRoom(ctx, creator("R1", "alice"), "c1").Success)
	require.True(t, f.coord.JoinRoom(ctx, joiner("R1", "bob"), "c2").Success)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if f.coord.SendMessage(ctx, "c2", domain.IncomingMessage{Username: "bob", Text: "x"}).Success {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}
	}()
	go func() {
		defer wg.Done()
		f.coord.Disconnect(ctx, "c2")
	}()
	wg.Wait()

	room, err := f.repo.GetByID(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, room.Messages(), delivered)
	assert.Equal(t, []string{"alice"}, room.MemberNames())
}
