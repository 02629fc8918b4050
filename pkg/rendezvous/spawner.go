package rendezvous

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/panjf2000/ants/v2"

	"github.com/srediag/plugin-mq/pkg/mq"
)

// Task is a running sender.
type Task interface {
	Wait() error
}

// Spawner starts the sending side of an exchange on an open queue.
type Spawner interface {
	Spawn(ctx context.Context, h mq.Handle) (Task, error)
}

// ProcessSpawner runs the sender as a child process. Args builds the child's
// argument list from the queue handle; the child inherits Stdout and Stderr.
type ProcessSpawner struct {
	Path   string
	Args   func(h mq.Handle) []string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

type processTask struct {
	cmd *exec.Cmd
}

func (p *ProcessSpawner) Spawn(ctx context.Context, h mq.Handle) (Task, error) {
	var args []string
	if p.Args != nil {
		args = p.Args(h)
	}
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Env = p.Env
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", p.Path, err)
	}
	return &processTask{cmd: cmd}, nil
}

func (t *processTask) Wait() error {
	if err := t.cmd.Wait(); err != nil {
		return fmt.Errorf("sender process %d: %w", t.cmd.Process.Pid, err)
	}
	return nil
}

// Pid is the child's process id.
func (t *processTask) Pid() int {
	return t.cmd.Process.Pid
}

// PoolSpawner runs the sender as a task on a goroutine pool in this process.
type PoolSpawner struct {
	Pool *ants.Pool
	Send func(ctx context.Context, h mq.Handle) error
}

type poolTask struct {
	done chan error
}

func (p *PoolSpawner) Spawn(ctx context.Context, h mq.Handle) (Task, error) {
	t := &poolTask{done: make(chan error, 1)}
	err := p.Pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				t.done <- fmt.Errorf("sender panicked: %v", r)
			}
		}()
		t.done <- p.Send(ctx, h)
	})
	if err != nil {
		return nil, fmt.Errorf("submit sender: %w", err)
	}
	return t, nil
}

func (t *poolTask) Wait() error {
	return <-t.done
}
