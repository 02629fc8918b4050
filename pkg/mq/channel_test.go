package mq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
)

type ChannelTestSuite struct {
	suite.Suite
	newBackend func() Backend

	backend Backend
	token   string
	owned   []*Channel
}

func (s *ChannelTestSuite) SetupTest() {
	s.backend = s.newBackend()
	s.token = filepath.Join(s.T().TempDir(), "msg_queue_key")
	s.Require().NoError(os.WriteFile(s.token, nil, 0o600))
	s.owned = nil

	key, err := DeriveKey(s.backend, s.token, 'b')
	if errors.Is(err, ErrUnsupported) {
		s.T().Skipf("%s backend unavailable: %v", s.backend.Name(), err)
	}
	s.Require().NoError(err)
	ch, err := OpenOrCreate(s.backend, key, WithPerm(0o600))
	if errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EPERM) {
		s.T().Skipf("%s backend unavailable: %v", s.backend.Name(), err)
	}
	s.Require().NoError(err)
	s.Require().NoError(ch.Destroy())
}

func (s *ChannelTestSuite) TearDownTest() {
	for _, ch := range s.owned {
		if ch.State() == StateOpen {
			_ = ch.Destroy()
		}
	}
}

func (s *ChannelTestSuite) open(opts ...Option) *Channel {
	key, err := DeriveKey(s.backend, s.token, 'b')
	s.Require().NoError(err)
	ch, err := OpenOrCreate(s.backend, key, append([]Option{WithPerm(0o600)}, opts...)...)
	s.Require().NoError(err)
	s.owned = append(s.owned, ch)
	return ch
}

func (s *ChannelTestSuite) TestDeriveKeyDeterministic() {
	k1, err := DeriveKey(s.backend, s.token, 'b')
	s.Require().NoError(err)
	k2, err := DeriveKey(s.backend, s.token, 'b')
	s.Require().NoError(err)
	s.Equal(k1, k2)

	k3, err := DeriveKey(s.backend, s.token, 'c')
	s.Require().NoError(err)
	s.NotEqual(k1, k3)
}

func (s *ChannelTestSuite) TestDeriveKeyErrors() {
	_, err := DeriveKey(s.backend, filepath.Join(s.T().TempDir(), "missing"), 'b')
	s.ErrorIs(err, ErrKeyDerivation)
	s.ErrorIs(err, os.ErrNotExist)

	_, err = DeriveKey(s.backend, s.token, 0)
	s.ErrorIs(err, ErrKeyDerivation)
	s.ErrorIs(err, ErrInvalidSeed)
}

func (s *ChannelTestSuite) TestOpenOrCreateAttachesToSameQueue() {
	a := s.open()
	b := s.open()
	s.Equal(a.Handle(), b.Handle())
	s.Equal(a.Key(), b.Key())
	s.Equal(StateOpen, a.State())
	s.True(a.Owner())
}

func (s *ChannelTestSuite) TestRoundTrip() {
	ch := s.open()
	ctx := context.Background()
	payloads := []string{
		"Hello from sender!",
		"",
		"héllo wörld ✓ 日本語",
		strings.Repeat("a", DefaultCapacity),
	}
	for _, p := range payloads {
		s.Require().NoError(ch.Send(ctx, DefaultType, p))
		got, err := ch.Receive(ctx, DefaultType)
		s.Require().NoError(err)
		s.Equal(p, got)
	}
}

func (s *ChannelTestSuite) TestRoundTripAcrossAttach() {
	owner := s.open()
	sender := Attach(s.backend, owner.Handle())
	s.False(sender.Owner())
	s.Equal(Key(0), sender.Key())

	s.Require().NoError(sender.Send(context.Background(), DefaultType, "Hello from sender!"))
	got, err := owner.Receive(context.Background(), DefaultType)
	s.Require().NoError(err)
	s.Equal("Hello from sender!", got)
}

func (s *ChannelTestSuite) TestSelectsByType() {
	ch := s.open()
	ctx := context.Background()
	s.Require().NoError(ch.Send(ctx, 2, "two"))
	s.Require().NoError(ch.Send(ctx, 1, "one"))

	got, err := ch.Receive(ctx, 1)
	s.Require().NoError(err)
	s.Equal("one", got)
	got, err = ch.Receive(ctx, 2)
	s.Require().NoError(err)
	s.Equal("two", got)
}

func (s *ChannelTestSuite) TestTruncation() {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ch := s.open(WithCapacity(8), WithMetrics(m))

	s.Require().NoError(ch.Send(context.Background(), DefaultType, "0123456789abcdef"))
	got, err := ch.Receive(context.Background(), DefaultType)
	s.Require().NoError(err)
	s.Equal("01234567", got)
	s.Equal(float64(1), counterValue(m.Truncated))
	s.Equal(float64(8), counterValue(m.BytesSent))
}

func (s *ChannelTestSuite) TestStrictPayload() {
	ch := s.open(WithCapacity(8), WithStrictPayload())
	err := ch.Send(context.Background(), DefaultType, "0123456789")
	s.ErrorIs(err, ErrSend)
	s.ErrorIs(err, ErrPayloadTooLarge)

	s.NoError(ch.Send(context.Background(), DefaultType, "01234567"))
}

func (s *ChannelTestSuite) TestInvalidType() {
	ch := s.open()
	err := ch.Send(context.Background(), 0, "x")
	s.ErrorIs(err, ErrSend)
	s.ErrorIs(err, ErrInvalidType)

	_, err = ch.Receive(context.Background(), -1)
	s.ErrorIs(err, ErrReceive)
	s.ErrorIs(err, ErrInvalidType)
}

func (s *ChannelTestSuite) TestReceiveBlocksUntilSend() {
	ch := s.open()
	done := make(chan string, 1)
	go func() {
		msg, err := ch.Receive(context.Background(), DefaultType)
		if err != nil {
			msg = "error: " + err.Error()
		}
		done <- msg
	}()

	select {
	case msg := <-done:
		s.FailNow("receive returned before send", msg)
	case <-time.After(150 * time.Millisecond):
	}

	s.Require().NoError(Attach(s.backend, ch.Handle()).Send(context.Background(), DefaultType, "late"))
	select {
	case msg := <-done:
		s.Equal("late", msg)
	case <-time.After(5 * time.Second):
		s.FailNow("receive did not return after send")
	}
}

func (s *ChannelTestSuite) TestDestroyWakesReceiver() {
	ch := s.open()
	errc := make(chan error, 1)
	go func() {
		_, err := ch.Receive(context.Background(), DefaultType)
		errc <- err
	}()
	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(ch.Destroy())

	select {
	case err := <-errc:
		s.ErrorIs(err, ErrReceive)
	case <-time.After(5 * time.Second):
		s.FailNow("receiver still blocked after destroy")
	}
}

func (s *ChannelTestSuite) TestDestroyTwiceFails() {
	ch := s.open()
	s.Require().NoError(ch.Destroy())
	s.Equal(StateDestroyed, ch.State())

	err := ch.Destroy()
	s.ErrorIs(err, ErrDestroy)
	s.ErrorIs(err, ErrClosed)
}

func (s *ChannelTestSuite) TestDestroyRemovedQueueFails() {
	ch := s.open()
	other := s.open()
	s.Require().NoError(other.Destroy())

	err := ch.Destroy()
	s.ErrorIs(err, ErrDestroy)
}

func (s *ChannelTestSuite) TestAttachedCannotDestroy() {
	ch := s.open()
	err := Attach(s.backend, ch.Handle()).Destroy()
	s.ErrorIs(err, ErrDestroy)
	s.ErrorIs(err, ErrNotOwner)
	s.Equal(StateOpen, ch.State())
}

func (s *ChannelTestSuite) TestOperationsAfterDestroy() {
	ch := s.open()
	s.Require().NoError(ch.Destroy())

	err := ch.Send(context.Background(), DefaultType, "x")
	s.ErrorIs(err, ErrSend)
	s.ErrorIs(err, ErrClosed)
	_, err = ch.Receive(context.Background(), DefaultType)
	s.ErrorIs(err, ErrReceive)
	s.ErrorIs(err, ErrClosed)

	// the attached side only learns about removal from the host
	err = Attach(s.backend, ch.Handle()).Send(context.Background(), DefaultType, "x")
	s.ErrorIs(err, ErrSend)
	s.NotErrorIs(err, ErrClosed)
}

func (s *ChannelTestSuite) TestInvalidUTF8SurfacesEncodingError() {
	ch := s.open()
	text := make([]byte, ch.Capacity())
	copy(text, []byte{'b', 'a', 'd', 0xc3, 0x28})
	s.Require().NoError(s.backend.Send(context.Background(), ch.Handle(), DefaultType, text))

	_, err := ch.Receive(context.Background(), DefaultType)
	s.ErrorIs(err, ErrEncoding)
	s.NotErrorIs(err, ErrReceive)
}

func (s *ChannelTestSuite) TestMetrics() {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ch := s.open(WithMetrics(m))
	ctx := context.Background()

	s.Require().NoError(ch.Send(ctx, DefaultType, "Hello"))
	_, err := ch.Receive(ctx, DefaultType)
	s.Require().NoError(err)
	s.Require().NoError(ch.Destroy())
	s.Error(ch.Destroy())

	s.Equal(float64(1), counterValue(m.Sent))
	s.Equal(float64(1), counterValue(m.Received))
	s.Equal(float64(5), counterValue(m.BytesReceived))
	s.Equal(float64(1), counterValue(m.Errors.WithLabelValues(OpDestroy)))

	families, err := reg.Gather()
	s.Require().NoError(err)
	s.NotEmpty(families)
}

func (s *ChannelTestSuite) TestEndToEnd() {
	key, err := DeriveKey(s.backend, s.token, 'b')
	s.Require().NoError(err)
	owner, err := OpenOrCreate(s.backend, key)
	s.Require().NoError(err)
	s.owned = append(s.owned, owner)

	go func() {
		_ = Attach(s.backend, owner.Handle()).Send(context.Background(), DefaultType, "Hello from sender!")
	}()
	got, err := owner.Receive(context.Background(), DefaultType)
	s.Require().NoError(err)
	s.Equal("Hello from sender!", got)
	s.NoError(owner.Destroy())
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func TestMemoryChannelTestSuite(t *testing.T) {
	suite.Run(t, &ChannelTestSuite{newBackend: func() Backend { return Memory() }})
}

func TestSysVChannelTestSuite(t *testing.T) {
	suite.Run(t, &ChannelTestSuite{newBackend: SysV})
}
