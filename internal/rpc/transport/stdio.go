package transport

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/brianly1003/lspclient/internal/rpc/message"
)

// StdioTransport implements Transport over a pair of byte streams framed
// with the LSP base protocol's Content-Length headers:
//
//	Content-Length: 123\r\n
//	\r\n
//	{"jsonrpc":"2.0",...}
//
// It is used both for the local process-spawn runtime (wired to a child's
// stdin/stdout pipes) and for the stdio side of a dev-loop test harness.
type StdioTransport struct {
	id     string
	reader *bufio.Reader
	writer io.Writer

	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// StdioOption configures a StdioTransport.
type StdioOption func(*StdioTransport)

// WithStdioID sets a custom ID for the transport.
func WithStdioID(id string) StdioOption {
	return func(t *StdioTransport) {
		t.id = id
	}
}

// NewStdioTransport creates a new stdio transport using os.Stdin and os.Stdout.
func NewStdioTransport(opts ...StdioOption) *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout, opts...)
}

// NewStdioTransportWithIO creates a new stdio transport with a custom
// reader/writer, such as the stdin/stdout pipes of a spawned language
// server process, or in-memory pipes in tests.
func NewStdioTransportWithIO(r io.Reader, w io.Writer, opts ...StdioOption) *StdioTransport {
	t := &StdioTransport{
		id:     "stdio",
		reader: bufio.NewReader(r),
		writer: w,
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ID returns the unique identifier for this transport.
func (t *StdioTransport) ID() string {
	return t.id
}

// Read reads the next LSP-framed message.
func (t *StdioTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-t.done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return t.readLSP()
}

// readLSP reads a single Content-Length-framed message, with header
// name matching case-insensitive per RFC 7230 (LSP servers in the wild do
// not all agree on casing).
func (t *StdioTransport) readLSP() ([]byte, error) {
	var contentLength int
	haveLength := false

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &message.FramingError{Reason: "reading header line", Cause: err}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "content-length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, &message.FramingError{Reason: "invalid Content-Length", Cause: err}
			}
			contentLength = n
			haveLength = true
		}
	}

	if !haveLength {
		return nil, &message.FramingError{Reason: "missing Content-Length header"}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, &message.FramingError{Reason: "reading message body", Cause: err}
	}

	return body, nil
}

// Write sends an LSP-framed message through the writer side.
func (t *StdioTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return t.writeLSP(data)
}

func (t *StdioTransport) writeLSP(data []byte) error {
	header := "Content-Length: " + strconv.Itoa(len(data)) + "\r\n\r\n"
	if _, err := t.writer.Write([]byte(header)); err != nil {
		return &message.FramingError{Reason: "writing header", Cause: err}
	}
	if _, err := t.writer.Write(data); err != nil {
		return &message.FramingError{Reason: "writing body", Cause: err}
	}
	return nil
}

// Close closes the stdio transport. It does not close the underlying
// reader/writer: ownership of the child process's pipes belongs to the
// supervisor runtime that created them.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)

	return nil
}

// Done returns a channel that's closed when the transport is closed.
func (t *StdioTransport) Done() <-chan struct{} {
	return t.done
}

// Info returns metadata about the stdio transport.
func (t *StdioTransport) Info() TransportInfo {
	return TransportInfo{
		Type: "stdio",
	}
}
