package entity

import "encoding/json"

// Status is the wire name of an ActionResult variant.
type Status string

const (
	StatusNone    Status = "none"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ActionResult is the outcome of one flow invocation. The variants are None,
// Pending, Success and Failure; the interface is sealed by an unexported method.
type ActionResult interface {
	Status() Status
	isActionResult()
}

// None is the state before the flow ever ran.
type None struct{}

// Pending is the state while an invocation is outstanding.
type Pending struct{}

// Success holds the signature or payload the flow produced.
type Success struct {
	Payload string
}

// Failure holds the user-visible error message.
type Failure struct {
	Message string
}

func (None) Status() Status    { return StatusNone }
func (Pending) Status() Status { return StatusPending }
func (Success) Status() Status { return StatusSuccess }
func (Failure) Status() Status { return StatusError }

func (None) isActionResult()    {}
func (Pending) isActionResult() {}
func (Success) isActionResult() {}
func (Failure) isActionResult() {}

// ResultCases has one handler per ActionResult variant.
type ResultCases[T any] struct {
	None    func() T
	Pending func() T
	Success func(Success) T
	Failure func(Failure) T
}

// Match dispatches r to the matching case. Every case must be set.
func Match[T any](r ActionResult, cases ResultCases[T]) T {
	switch v := r.(type) {
	case nil, None:
		return cases.None()
	case Pending:
		return cases.Pending()
	case Success:
		return cases.Success(v)
	case Failure:
		return cases.Failure(v)
	default:
		panic("entity: unknown ActionResult variant")
	}
}

type resultJSON struct {
	Status    Status `json:"status"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ResultView is the JSON form of an ActionResult.
type ResultView struct {
	Result ActionResult
}

// MarshalJSON renders the result as {status, signature?, error?}.
func (v ResultView) MarshalJSON() ([]byte, error) {
	out := Match(v.Result, ResultCases[resultJSON]{
		None:    func() resultJSON { return resultJSON{Status: StatusNone} },
		Pending: func() resultJSON { return resultJSON{Status: StatusPending} },
		Success: func(s Success) resultJSON { return resultJSON{Status: StatusSuccess, Signature: s.Payload} },
		Failure: func(f Failure) resultJSON { return resultJSON{Status: StatusError, Error: f.Message} },
	})
	return json.Marshal(out)
}
