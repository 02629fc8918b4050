package rendezvous

import (
	"errors"
	"fmt"

	"github.com/srediag/plugin-mq/pkg/mq"
)

// Defaults reproduce the classic demo exchange.
const (
	DefaultToken   = "msg_queue_key"
	DefaultSeed    = 'b'
	DefaultPayload = "Hello from sender!"
)

// Config describes one exchange. Both sides must agree on every field except Payload.
type Config struct {
	Token    string
	Seed     byte
	Type     int64
	Payload  string
	Capacity int
	Strict   bool
}

// DefaultConfig returns the classic demo exchange.
func DefaultConfig() Config {
	return Config{
		Token:    DefaultToken,
		Seed:     DefaultSeed,
		Type:     mq.DefaultType,
		Payload:  DefaultPayload,
		Capacity: mq.DefaultCapacity,
	}
}

// Validate rejects configurations that could never complete an exchange.
func (c Config) Validate() error {
	var errs []error
	if c.Token == "" {
		errs = append(errs, errors.New("token is empty"))
	}
	if c.Seed == 0 {
		errs = append(errs, mq.ErrInvalidSeed)
	}
	if c.Type <= 0 {
		errs = append(errs, fmt.Errorf("type %d: %w", c.Type, mq.ErrInvalidType))
	}
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity %d must be positive", c.Capacity))
	} else if c.Strict && len(c.Payload) > c.Capacity {
		errs = append(errs, fmt.Errorf("payload: %w: %d > %d", mq.ErrPayloadTooLarge, len(c.Payload), c.Capacity))
	}
	return errors.Join(errs...)
}

func (c Config) channelOptions() []mq.Option {
	opts := []mq.Option{mq.WithCapacity(c.Capacity)}
	if c.Strict {
		opts = append(opts, mq.WithStrictPayload())
	}
	return opts
}
