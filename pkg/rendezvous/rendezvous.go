// Package rendezvous runs a single-message exchange over an mq.Channel: the owner opens the
// queue, spawns a sender, blocks for the message, prints it and destroys the queue.
package rendezvous

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/srediag/plugin-mq/internal/logging"
	"github.com/srediag/plugin-mq/pkg/mq"
)

// Exchange wires one side of a rendezvous. Out receives the human-readable
// "Message sent" / "Message received" lines.
type Exchange struct {
	Backend        mq.Backend
	Config         Config
	Spawner        Spawner
	Out            io.Writer
	Logger         *logging.Logger
	ChannelOptions []mq.Option
	// OnOpen, if set, is called with the owned channel before the sender is spawned.
	OnOpen func(ch *mq.Channel)

	once sync.Once
	out  *lockedWriter
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, a ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.w, format, a...)
}

func (e *Exchange) init() {
	e.once.Do(func() {
		w := e.Out
		if w == nil {
			w = os.Stdout
		}
		e.out = &lockedWriter{w: w}
		if e.Logger == nil {
			e.Logger = logging.Nop()
		}
	})
}

func (e *Exchange) options() []mq.Option {
	opts := append(e.Config.channelOptions(), mq.WithLogger(e.Logger.Named("mq")))
	return append(opts, e.ChannelOptions...)
}

// Receive runs the owning side. Failures are returned as is and leave the queue in
// place, except a sender failure, which removes it so the blocked receive returns.
func (e *Exchange) Receive(ctx context.Context) error {
	e.init()
	if e.Spawner == nil {
		return fmt.Errorf("rendezvous: no sender spawner configured")
	}
	if err := e.Config.Validate(); err != nil {
		return fmt.Errorf("rendezvous: %w", err)
	}

	key, err := mq.DeriveKey(e.Backend, e.Config.Token, e.Config.Seed)
	if err != nil {
		return err
	}
	ch, err := mq.OpenOrCreate(e.Backend, key, e.options()...)
	if err != nil {
		return err
	}
	if e.OnOpen != nil {
		e.OnOpen(ch)
	}

	task, err := e.Spawner.Spawn(ctx, ch.Handle())
	if err != nil {
		return err
	}
	if pt, ok := task.(interface{ Pid() int }); ok {
		e.Logger.Infof("sender started as pid %d", pt.Pid())
	}
	senderDone := make(chan error, 1)
	go func() { senderDone <- task.Wait() }()

	msg, err := e.receive(ctx, ch, senderDone)
	if err != nil {
		return err
	}
	e.out.printf("Message received: %s\n", msg)

	if err := ch.Destroy(); err != nil {
		return err
	}
	return <-senderDone
}

type received struct {
	msg string
	err error
}

// receive waits for the message while watching the sender. A sender that fails
// before delivering removes the queue, which wakes the blocked receive.
func (e *Exchange) receive(ctx context.Context, ch *mq.Channel, senderDone chan error) (string, error) {
	got := make(chan received, 1)
	go func() {
		msg, err := ch.Receive(ctx, e.Config.Type)
		got <- received{msg: msg, err: err}
	}()

	select {
	case r := <-got:
		return r.msg, r.err
	case err := <-senderDone:
		if err == nil {
			senderDone <- nil
			r := <-got
			return r.msg, r.err
		}
		e.Logger.Errorf("sender failed before delivering: %v", err)
		if derr := ch.Destroy(); derr != nil {
			e.Logger.Warnf("remove queue after sender failure: %v", derr)
		}
		<-got
		return "", fmt.Errorf("rendezvous: sender: %w", err)
	}
}

// Send runs the non-owning side on a queue opened by another party. It never destroys the queue.
func (e *Exchange) Send(ctx context.Context, h mq.Handle) error {
	e.init()
	if err := e.Config.Validate(); err != nil {
		return fmt.Errorf("rendezvous: %w", err)
	}
	ch := mq.Attach(e.Backend, h, e.options()...)
	if err := ch.Send(ctx, e.Config.Type, e.Config.Payload); err != nil {
		return err
	}
	e.out.printf("Message sent: %s\n", e.Config.Payload)
	return nil
}
