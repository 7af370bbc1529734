// Package zmqpub publishes due pings on a ZeroMQ PUB socket so any number
// of desktop or phone clients can subscribe and ask the user
package zmqpub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	perr "tagtime/internal/platform/errors"
	"tagtime/internal/services/prompter/domain"

	zmq "github.com/pebbe/zmq4"
)

// Topic prefixes every published frame so subscribers can filter
const Topic = "tagtime.ping.due"

// Event is the JSON body of a published ping
type Event struct {
	Seed string `json:"seed"`
	Unix int64  `json:"unix"`
	Time string `json:"time"`
}

type socket interface {
	SendMessage(parts ...any) (int, error)
	Close() error
}

// openSocket is swapped in tests
var openSocket = func(endpoint string) (socket, func() error, error) {
	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, nil, err
	}
	s, err := zctx.NewSocket(zmq.Type(zmq.PUB))
	if err != nil {
		_ = zctx.Term()
		return nil, nil, err
	}
	if err := s.SetLinger(time.Second); err != nil {
		_ = s.Close()
		_ = zctx.Term()
		return nil, nil, err
	}
	if err := s.Bind(endpoint); err != nil {
		_ = s.Close()
		_ = zctx.Term()
		return nil, nil, fmt.Errorf("zmqpub: bind %s: %w", endpoint, err)
	}
	return s, zctx.Term, nil
}

// Publisher is a domain.Notifier over a bound PUB socket
// zmq sockets are not thread safe so sends are serialized
type Publisher struct {
	mu     sync.Mutex
	sock   socket
	term   func() error
	closed bool
}

// Open binds a PUB socket at endpoint, e.g. tcp://127.0.0.1:5556
func Open(endpoint string) (*Publisher, error) {
	if endpoint == "" {
		return nil, perr.Configf("zmqpub: endpoint is required")
	}
	s, term, err := openSocket(endpoint)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "zmqpub: open %s", endpoint)
	}
	return &Publisher{sock: s, term: term}, nil
}

// Notify publishes d as [Topic, json]
func (p *Publisher) Notify(ctx context.Context, d domain.Due) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(Event{
		Seed: strconv.FormatUint(d.Seed, 10),
		Unix: d.Time.Unix(),
		Time: d.Time.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return perr.Unavailablef("zmqpub: publisher closed")
	}
	if _, err := p.sock.SendMessage(Topic, body); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "zmqpub: publish seed %d", d.Seed)
	}
	return nil
}

// Close closes the socket and terminates its context
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.sock.Close()
	if p.term != nil {
		if terr := p.term(); err == nil {
			err = terr
		}
	}
	return err
}
