package response

import "strings"

// Code is the closed set of result codes a transaction can produce.
type Code string

// Response code constants.
const (
	// Error means the request was received but could not be executed.
	Error            Code = "ERROR"
	Init             Code = "INIT"
	OK               Code = "OK"
	Busy             Code = "BUSY"
	Unavailable      Code = "UNAVAILABLE"
	Success          Code = "SUCCESS"
	Fail             Code = "FAIL"
	Unauthorized     Code = "UNAUTHORIZED"
	Unknown          Code = "UNKNOWN"
	ConfigError      Code = "CONFIG_ERROR"
	CommandCompleted Code = "COMMAND_COMPLETED"
)

// DefaultDelimiter separates fields on a packed response line.
const DefaultDelimiter = "|"

var validCodes = map[Code]struct{}{
	Error: {}, Init: {}, OK: {}, Busy: {}, Unavailable: {}, Success: {},
	Fail: {}, Unauthorized: {}, Unknown: {}, ConfigError: {}, CommandCompleted: {},
}

// IsValid reports whether c is one of the known codes.
func (c Code) IsValid() bool {
	_, ok := validCodes[c]
	return ok
}

// Response is a result code plus zero or more message lines.
type Response struct {
	code     Code
	messages []string
}

// New creates a Response in the INIT state.
func New() *Response {
	return &Response{code: Init}
}

// NewWithCode creates a Response carrying code.
func NewWithCode(code Code) *Response {
	return &Response{code: code}
}

// SetCode replaces the result code.
func (r *Response) SetCode(code Code) { r.code = code }

// SetResponse appends a message line. Empty messages are dropped.
func (r *Response) SetResponse(msg string) {
	if msg == "" {
		return
	}
	r.messages = append(r.messages, msg)
}

// Code returns the result code.
func (r *Response) Code() Code { return r.code }

// Messages returns a copy of the message lines.
func (r *Response) Messages() []string {
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Pack renders the response as CODE<delim>msg1<delim>msg2<delim>...
// Delimiter characters inside messages are replaced so the line stays parseable.
func (r *Response) Pack(delim string) string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	var sb strings.Builder
	sb.WriteString(string(r.code))
	sb.WriteString(delim)
	for _, m := range r.messages {
		sb.WriteString(strings.ReplaceAll(m, delim, " "))
		sb.WriteString(delim)
	}
	return sb.String()
}

// String packs with the default delimiter.
func (r *Response) String() string { return r.Pack(DefaultDelimiter) }
