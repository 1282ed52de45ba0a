// Package wsapi serves reactive updates over a WebSocket. Each connection is a
// session: a new update cancels the one in flight, and responses for anything
// but the latest update are dropped, so clients only ever see fresh schema.
package wsapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-formkit/pkg/reactive"
)

const (
	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
)

// Inbound is a client message. Type is "update" (the default) or "ping";
// update messages carry the reactive request fields inline.
type Inbound struct {
	Type string `json:"type,omitempty"`
	reactive.Request
}

// Outbound is a server message of type "update", "error" or "pong".
type Outbound struct {
	Type         string             `json:"type"`
	RequestToken string             `json:"requestToken,omitempty"`
	Response     *reactive.Response `json:"response,omitempty"`
	Status       int                `json:"status,omitempty"`
	Error        string             `json:"error,omitempty"`
}

type Options struct {
	Guard     reactive.GuardFunc
	Logger    *slog.Logger
	WriteWait time.Duration
	PongWait  time.Duration
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(*http.Request) bool
	// OnDrop is called with the token of every stale response discarded.
	OnDrop func(token string)
}

type OptionFn func(*Options)

func NewOptions(fns ...OptionFn) Options {
	opts := Options{WriteWait: defaultWriteWait, PongWait: defaultPongWait}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}
	return opts
}

func WithGuard(guard reactive.GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}

func WithCheckOrigin(fn func(*http.Request) bool) OptionFn {
	return func(o *Options) { o.CheckOrigin = fn }
}

func WithPongWait(d time.Duration) OptionFn {
	return func(o *Options) { o.PongWait = d }
}

func WithOnDrop(fn func(token string)) OptionFn {
	return func(o *Options) { o.OnDrop = fn }
}

// Handler upgrades requests and runs a session per connection.
func Handler(engine *reactive.Engine, fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     opts.CheckOrigin,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				code := reactive.GuardStatus(err)
				http.Error(w, http.StatusText(code), code)
				return
			}
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			opts.Logger.Debug("formkit: websocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		defer conn.Close()
		newSession(engine, conn, opts).run(r.Context())
	})
}

type session struct {
	engine *reactive.Engine
	conn   *websocket.Conn
	opts   Options
	out    chan Outbound
	// done closes when the writer exits; nothing drains out after that.
	done chan struct{}

	mu      sync.Mutex
	latest  uint64
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

func newSession(engine *reactive.Engine, conn *websocket.Conn, opts Options) *session {
	return &session{engine: engine, conn: conn, opts: opts, out: make(chan Outbound, 32), done: make(chan struct{})}
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	go s.write(ctx)

	for {
		var in Inbound
		if err := s.conn.ReadJSON(&in); err != nil {
			break
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			s.push(ctx, Outbound{Type: "pong"})
		case "", "update":
			s.update(ctx, in.Request)
		default:
			s.push(ctx, Outbound{Type: "error", Status: http.StatusBadRequest, Error: "unknown message type " + in.Type})
		}
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.pending.Wait()
	cancel()
	<-s.done
}

// update supersedes the running update and starts req.
func (s *session) update(ctx context.Context, req reactive.Request) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	seq := s.latest
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		resp, err := s.engine.Update(ctx, req)
		if !s.current(seq) {
			s.opts.Logger.Debug("formkit: dropped stale update", slog.String("request_token", req.RequestToken))
			if s.opts.OnDrop != nil {
				s.opts.OnDrop(req.RequestToken)
			}
			return
		}
		if err != nil {
			s.push(ctx, Outbound{Type: "error", RequestToken: req.RequestToken, Status: reactive.Status(err), Error: reactive.Body(err).Error})
			return
		}
		s.push(ctx, Outbound{Type: "update", RequestToken: req.RequestToken, Response: resp})
	}()
}

func (s *session) current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest == seq
}

func (s *session) push(ctx context.Context, msg Outbound) {
	select {
	case s.out <- msg:
	case <-ctx.Done():
	case <-s.done:
	}
}

func (s *session) write(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.PongWait * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.out:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait)); err != nil {
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
