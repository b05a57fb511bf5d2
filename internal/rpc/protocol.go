// Package rpc implements the newline-delimited JSON protocol between the
// rk CLI and the daemon serving lifecycle operations over a local socket.
package rpc

import "encoding/json"

// Request represents an RPC request from a client to the daemon.
type Request struct {
	Operation     string          `json:"operation"`
	Args          json.RawMessage `json:"args"`
	Actor         string          `json:"actor,omitempty"`
	ClientVersion string          `json:"client_version,omitempty"`
}

// Response represents an RPC response from the daemon to a client.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Operations supported by the daemon.
const (
	OpPing   = "ping"
	OpHealth = "health"

	OpTicketCreate = "ticket_create"
	OpTicketShow   = "ticket_show"
	OpTicketList   = "ticket_list"
	OpTicketDelete = "ticket_delete"

	OpStartWork    = "start_work"
	OpCompleteWork = "complete_work"
	OpLinkCommit   = "link_commit"

	OpFindingSubmit = "finding_submit"
	OpFindingFix    = "finding_fix"
	OpFindingList   = "finding_list"
	OpDemoGenerate  = "demo_generate"
	OpDemoFeedback  = "demo_feedback"

	OpSessionCreate   = "session_create"
	OpSessionUpdate   = "session_update"
	OpSessionComplete = "session_complete"
	OpSessionShow     = "session_show"
)

// NewRequest creates a new RPC request with the given operation and arguments.
func NewRequest(operation string, args interface{}) (*Request, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return &Request{
		Operation:     operation,
		Args:          argsJSON,
		ClientVersion: ClientVersion,
	}, nil
}

// NewSuccessResponse creates a successful response with the given data.
func NewSuccessResponse(data interface{}) (*Response, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Response{
		Success: true,
		Data:    dataJSON,
	}, nil
}

// NewErrorResponse creates an error response with the given error message.
func NewErrorResponse(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

// UnmarshalArgs unmarshals the request arguments into the given value.
func (r *Request) UnmarshalArgs(v interface{}) error {
	return json.Unmarshal(r.Args, v)
}

// UnmarshalData unmarshals the response data into the given value.
func (r *Response) UnmarshalData(v interface{}) error {
	return json.Unmarshal(r.Data, v)
}

// PingResponse is the payload of a ping reply
type PingResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse is the payload of a health reply
type HealthResponse struct {
	Status       string  `json:"status"`
	Version      string  `json:"version"`
	Uptime       float64 `json:"uptime_seconds"`
	DBResponseMs float64 `json:"db_response_ms"`
	Error        string  `json:"error,omitempty"`
}
