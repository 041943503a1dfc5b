package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GenericMessage is shown when a failure carries no usable message.
const GenericMessage = "something went wrong, please try again"

// Error is a failed record store call. Status is zero for transport failures.
// Message is the server's "error" field and may be empty.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("record store: %d: %s", e.Status, e.Message)
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("record store: %d: %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("record store: %v", e.Err)
	default:
		return fmt.Sprintf("record store: status %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text for err: the server's error message
// when there is one, otherwise GenericMessage.
func Message(err error) string {
	var rse *Error
	if errors.As(err, &rse) && rse.Message != "" {
		return rse.Message
	}
	return GenericMessage
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var rse *Error
	return errors.As(err, &rse) && rse.Status == 404
}

func decodeError(status int, body []byte) *Error {
	var payload struct {
		Error json.RawMessage `json:"error"`
		Code  string          `json:"code"`
	}
	e := &Error{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Err = fmt.Errorf("malformed error payload: %w", err)
		return e
	}
	e.Code = payload.Code
	var msg string
	if err := json.Unmarshal(payload.Error, &msg); err == nil {
		e.Message = msg
	}
	return e
}
