// Package client implements the Multiplexer: the single read/write loop
// that correlates outbound requests with their responses and routes
// server-originated requests and notifications to a dispatch channel.
package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/lspclient/internal/chans"
	"github.com/brianly1003/lspclient/internal/rpc/message"
	"github.com/brianly1003/lspclient/internal/rpc/transport"
)

// ServerRequest is a request the server sent to the client (e.g.
// workspace/configuration, window/showMessageRequest, client/registerCapability).
// Reply must be called exactly once unless the request was a Notification.
type ServerRequest struct {
	Method       string
	Params       json.RawMessage
	IsNotification bool
	reply        func(*message.Response)
	replyOnce    sync.Once
}

// Reply sends a response for a server-originated request. It is a no-op for
// notifications and on a second call.
func (r *ServerRequest) Reply(result interface{}, rpcErr *message.Error) {
	if r.IsNotification || r.reply == nil {
		return
	}
	r.replyOnce.Do(func() {
		if rpcErr != nil {
			r.reply(message.NewErrorResponse(nil, rpcErr))
			return
		}
		resp, err := message.NewSuccessResponse(nil, result)
		if err != nil {
			r.reply(message.NewErrorResponse(nil, message.ErrInternalError(err.Error())))
			return
		}
		r.reply(resp)
	})
}

// Session is one multiplexed JSON-RPC conversation over a single Transport.
// It owns the transport's read loop: outbound Call/Notify write directly,
// while every inbound message is decoded once here and routed either to the
// pending table (responses) or to the server-request channel (server
// requests and notifications), generalizing the teacher's single
// `pending map[int64]chan *Response` + `readLoop` into a bidirectional
// session that also understands server-to-client traffic.
type Session struct {
	transport transport.Transport
	pending   *chans.PendingTable
	logger    zerolog.Logger

	serverRequests chan *ServerRequest

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger overrides the session's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithServerRequestBuffer sets the buffer size of the server-request
// channel; unbuffered by default.
func WithServerRequestBuffer(n int) Option {
	return func(s *Session) { s.serverRequests = make(chan *ServerRequest, n) }
}

// NewSession wraps t and starts its read loop.
func NewSession(t transport.Transport, opts ...Option) *Session {
	s := &Session{
		transport:      t,
		pending:        chans.NewPendingTable(),
		logger:         log.Logger,
		serverRequests: make(chan *ServerRequest),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.readLoop()
	return s
}

// ServerRequests returns the channel of server-originated requests and
// notifications. A capability dispatch table should range over this
// channel for the lifetime of the session.
func (s *Session) ServerRequests() <-chan *ServerRequest {
	return s.serverRequests
}

// Call sends a request with a freshly generated id and blocks for its
// response.
func (s *Session) Call(ctx context.Context, method string, params interface{}) (*message.Response, error) {
	return s.CallWithID(ctx, message.NewUUIDID(), method, params)
}

// CallWithID sends a request using an explicit id, needed for the two
// reserved handshake calls (initialize/shutdown) whose ids are fixed.
func (s *Session) CallWithID(ctx context.Context, id *message.ID, method string, params interface{}) (*message.Response, error) {
	req, err := message.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	waiter := s.pending.Register(id)

	data, err := json.Marshal(req)
	if err != nil {
		s.pending.Cancel(id)
		return nil, &message.CodecError{Stage: "encode-request", Cause: err}
	}

	if err := s.transport.Write(ctx, data); err != nil {
		s.pending.Cancel(id)
		return nil, err
	}

	resp, err := waiter.Wait(ctx)
	if err != nil {
		s.pending.Cancel(id)
		return nil, err
	}
	return resp, nil
}

// Notify sends a notification; there is no response to wait for.
func (s *Session) Notify(ctx context.Context, method string, params interface{}) error {
	notif, err := message.NewNotification(method, params)
	if err != nil {
		return err
	}
	data, err := json.Marshal(notif)
	if err != nil {
		return &message.CodecError{Stage: "encode-notification", Cause: err}
	}
	return s.transport.Write(ctx, data)
}

// Close closes the underlying transport and drains the pending table so no
// caller of Call blocks forever. The serverRequests channel is closed by
// the read loop once it observes the transport is gone, not here, so a
// concurrent dispatchServerRequest send can never race a close.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.transport.Close()
	s.pending.DrainWithError(message.NewError(message.InternalError, "session closed"))
	close(s.done)
	return err
}

// Done returns a channel closed once Close has been called.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) readLoop() {
	ctx := context.Background()
	defer close(s.serverRequests)
	for {
		data, err := s.transport.Read(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("session read loop exiting")
			s.pending.DrainWithError(message.NewError(message.InternalError, "transport closed: "+err.Error()))
			return
		}
		s.handleMessage(data)
	}
}

func (s *Session) handleMessage(data []byte) {
	switch {
	case !message.HasMethod(data):
		// A response: either success or error, always carries an id.
		resp, err := message.ParseResponse(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed response")
			return
		}
		if !s.pending.Send(resp) {
			s.logger.Debug().Str("id", resp.ID.String()).Msg("response for unknown or already-retired request id")
		}

	case message.HasID(data):
		// A server-to-client request.
		req, err := message.ParseRequest(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed server request")
			return
		}
		sr := &ServerRequest{
			Method: req.Method,
			Params: req.Params,
			reply: func(resp *message.Response) {
				resp.ID = req.ID
				out, err := json.Marshal(resp)
				if err != nil {
					s.logger.Warn().Err(err).Msg("failed to encode reply to server request")
					return
				}
				if err := s.transport.Write(context.Background(), out); err != nil {
					s.logger.Warn().Err(err).Msg("failed to write reply to server request")
				}
			},
		}
		s.dispatchServerRequest(sr)

	default:
		// A server-to-client notification.
		notif, err := message.ParseNotification(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed notification")
			return
		}
		s.dispatchServerRequest(&ServerRequest{
			Method:         notif.Method,
			Params:         notif.Params,
			IsNotification: true,
		})
	}
}

func (s *Session) dispatchServerRequest(sr *ServerRequest) {
	select {
	case s.serverRequests <- sr:
	case <-s.done:
	}
}
