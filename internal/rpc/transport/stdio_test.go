package transport

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"
)

func TestStdioTransport_WriteThenReadRoundTrips(t *testing.T) {
	pr, pw := io.Pipe()
	writer := NewStdioTransportWithIO(nil, pw)
	reader := NewStdioTransportWithIO(pr, io.Discard)

	payload := []byte(`{"jsonrpc":"2.0","method":"initialize"}`)

	errCh := make(chan error, 1)
	go func() {
		errCh <- writer.Write(context.Background(), payload)
	}()

	got, err := reader.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %s, got %s", payload, got)
	}
}

func TestStdioTransport_ReadHonorsCaseInsensitiveHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("content-length: 13\r\n\r\n")
	buf.WriteString(`{"a":"b","c"}`)

	tr := NewStdioTransportWithIO(&buf, io.Discard)

	got, err := tr.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"a":"b","c"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestStdioTransport_Read_MissingContentLengthErrors(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("X-Something: 1\r\n\r\n")

	tr := NewStdioTransportWithIO(&buf, io.Discard)
	if _, err := tr.Read(context.Background()); err == nil {
		t.Fatal("expected an error for a message missing Content-Length")
	}
}

func TestStdioTransport_Read_UnblocksWhenUnderlyingPipeCloses(t *testing.T) {
	pr, pw := io.Pipe()

	tr := NewStdioTransportWithIO(pr, io.Discard)

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Read(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	pw.Close() // unblocks the in-flight header read with io.EOF

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected an error once the underlying pipe closes mid-read")
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after the pipe closed")
	}
}

func TestStdioTransport_Close_IsIdempotent(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	defer pw.Close()

	tr := NewStdioTransportWithIO(pr, pw)
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case <-tr.Done():
	default:
		t.Error("expected Done() to be closed after Close()")
	}
}

func TestStdioTransport_Write_AfterCloseErrors(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()

	tr := NewStdioTransportWithIO(nil, pw)
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := tr.Write(context.Background(), []byte("x")); err != ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed, got %v", err)
	}
}
