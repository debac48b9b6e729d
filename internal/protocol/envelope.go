package protocol

import "encoding/json"

// Error codes returned on the wire. The set is closed; handlers surface
// domain errors which the dispatcher maps onto these.
const (
	CodeFramingError    = "FramingError"
	CodeUnknownAction   = "UnknownAction"
	CodeAuthError       = "AuthError"
	CodeSessionInvalid  = "SessionInvalid"
	CodeValidationError = "ValidationError"
	CodeNotFound        = "NotFound"
	CodeNotImplemented  = "NotImplemented"
	CodeInternalError   = "InternalError"
)

// Request is the envelope sent by clients. Data carries the action-specific
// fields and is decoded once by the handler for that action.
type Request struct {
	ReqID  string          `json:"req_id"`
	Role   string          `json:"role"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Response is the envelope written back for every request. Error is null on
// success, otherwise one of the Code constants. Data is an empty object on
// error.
type Response struct {
	ReqID string  `json:"req_id"`
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

// OK builds a success response, echoing the request id.
func OK(reqID string, data any) Response {
	if data == nil {
		data = struct{}{}
	}
	return Response{ReqID: reqID, OK: true, Data: data}
}

// Err builds a failure response carrying one of the Code constants.
func Err(reqID, code string) Response {
	return Response{ReqID: reqID, OK: false, Error: &code, Data: struct{}{}}
}
