package mq_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srediag/plugin-mq/pkg/mq"
)

func Example() {
	dir, err := os.MkdirTemp("", "mq-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)
	token := filepath.Join(dir, "msg_queue_key")
	if err := os.WriteFile(token, nil, 0o600); err != nil {
		fmt.Println(err)
		return
	}

	ctx := context.Background()
	backend := mq.Memory()
	key, err := mq.DeriveKey(backend, token, 'b')
	if err != nil {
		fmt.Println(err)
		return
	}
	owner, err := mq.OpenOrCreate(backend, key)
	if err != nil {
		fmt.Println(err)
		return
	}

	go func() {
		_ = mq.Attach(backend, owner.Handle()).Send(ctx, mq.DefaultType, "Hello from sender!")
	}()
	msg, err := owner.Receive(ctx, mq.DefaultType)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Message received:", msg)
	fmt.Println(owner.Destroy(), owner.State())
	// Output:
	// Message received: Hello from sender!
	// <nil> destroyed
}
