// Package message defines the JSON-RPC 2.0 message types that carry the
// Language Server Protocol's request/response/notification traffic.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Request represents a JSON-RPC 2.0 request.
// If ID is nil, this is a notification (no response expected).
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request is a notification (no ID).
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsError returns true if this response contains an error.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// Notification represents a message with no ID and no expected response, in
// either direction (client-to-server or server-to-client).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ID represents a JSON-RPC request id, which per spec is a string, a number,
// or null. Only string and int64 are supported as values; a nil *ID denotes
// a notification, never a null id on the wire.
type ID struct {
	value interface{} // string or int64
}

// StringID creates an ID from a string.
func StringID(s string) *ID {
	return &ID{value: s}
}

// NumberID creates an ID from an integer.
func NumberID(n int64) *ID {
	return &ID{value: n}
}

// NewUUIDID creates a fresh, randomly generated string ID for an outbound
// request. Used for every request the multiplexer originates except the two
// reserved handshake ids below.
func NewUUIDID() *ID {
	return StringID(uuid.New().String())
}

// InitializeID is the fixed request id used for the single initialize call
// of a server's lifecycle, so logs and pending-table dumps are recognizable
// at a glance.
func InitializeID() *ID {
	return StringID("initialize")
}

// ShutdownID is the fixed request id used for the single shutdown call of a
// server's lifecycle.
func ShutdownID() *ID {
	return StringID("shutdown")
}

// IsString returns true if the ID is a string.
func (id *ID) IsString() bool {
	_, ok := id.value.(string)
	return ok
}

// IsNumber returns true if the ID is a number.
func (id *ID) IsNumber() bool {
	_, ok := id.value.(int64)
	return ok
}

// String returns the ID rendered for logging, comparison, and as the
// pending-table key.
func (id *ID) String() string {
	if id == nil {
		return "<nil>"
	}
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two ids carry the same type and value.
func (id *ID) Equal(other *ID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		id.value = nil
		return nil
	}

	// Try string first.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id.value = s
		return nil
	}

	// Try integer.
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		id.value = n
		return nil
	}

	// JSON numbers may arrive as floats; LSP ids are always integral.
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		id.value = int64(f)
		return nil
	}

	return fmt.Errorf("invalid ID type: %s", string(data))
}

// NewRequest creates a new JSON-RPC request.
func NewRequest(id *ID, method string, params interface{}) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
	}

	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}

	return req, nil
}

// NewNotification creates a new JSON-RPC notification.
func NewNotification(method string, params interface{}) (*Notification, error) {
	notif := &Notification{
		JSONRPC: Version,
		Method:  method,
	}

	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		notif.Params = data
	}

	return notif, nil
}

// NewSuccessResponse creates a successful JSON-RPC response.
func NewSuccessResponse(id *ID, result interface{}) (*Response, error) {
	resp := &Response{
		JSONRPC: Version,
		ID:      id,
	}

	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		resp.Result = data
	}

	return resp, nil
}

// NewErrorResponse creates an error JSON-RPC response.
func NewErrorResponse(id *ID, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}

// ParseRequest parses a JSON-RPC request from bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &CodecError{Stage: "decode-request", Cause: err}
	}

	if req.JSONRPC != Version {
		return nil, &CodecError{Stage: "decode-request", Cause: fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)}
	}
	if req.Method == "" {
		return nil, &CodecError{Stage: "decode-request", Cause: fmt.Errorf("missing method")}
	}

	return &req, nil
}

// ParseResponse parses a JSON-RPC response from bytes.
func ParseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &CodecError{Stage: "decode-response", Cause: err}
	}

	if resp.JSONRPC != Version {
		return nil, &CodecError{Stage: "decode-response", Cause: fmt.Errorf("invalid jsonrpc version: %s", resp.JSONRPC)}
	}

	return &resp, nil
}

// ParseNotification parses a JSON-RPC notification from bytes.
func ParseNotification(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, &CodecError{Stage: "decode-notification", Cause: err}
	}
	if n.JSONRPC != Version {
		return nil, &CodecError{Stage: "decode-notification", Cause: fmt.Errorf("invalid jsonrpc version: %s", n.JSONRPC)}
	}
	return &n, nil
}

// IsJSONRPC checks if the given data looks like a JSON-RPC message. This is a
// quick heuristic check, not a full validation.
func IsJSONRPC(data []byte) bool {
	if len(data) < 20 || data[0] != '{' {
		return false
	}

	var msg struct {
		JSONRPC string `json:"jsonrpc"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return false
	}

	return msg.JSONRPC == Version
}

// HasID reports whether the raw bytes decode to a message carrying a
// non-null "id" field, distinguishing requests from notifications without a
// full unmarshal into a concrete type.
func HasID(data []byte) bool {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe.ID) > 0 && string(probe.ID) != "null"
}

// HasMethod reports whether the raw bytes decode to a message carrying a
// non-empty "method" field, distinguishing requests/notifications from
// responses.
func HasMethod(data []byte) bool {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Method != ""
}
