package main

import (
	"encoding/json"
	"fmt"
)

// CommandRequest is one decoded command envelope received from a client.
type CommandRequest struct {
	Command string          `json:"command"`          // Command name, e.g. "get_feature_collection"
	Params  json.RawMessage `json:"params,omitempty"` // Command-specific parameters
}

// CommandResponse is a successful command result. Result may be null.
type CommandResponse struct {
	Result any `json:"result"`
}

// ErrorResponse carries a structured command failure.
type ErrorResponse struct {
	Error *WireError `json:"error"`
}

// WireError is the error payload sent to clients. Code is an integer for
// standard errors or the sentinel string "MULTIPLE_PLOTS" when the caller
// must disambiguate the target plot.
type WireError struct {
	Message        string     `json:"message"`
	Code           ErrorCode  `json:"code"`
	AvailablePlots []PlotInfo `json:"available_plots,omitempty"`
}

// ErrorCode marshals as a JSON number for standard errors or as a string
// for sentinel codes.
type ErrorCode struct {
	Number   int
	Sentinel string
}

func (c ErrorCode) MarshalJSON() ([]byte, error) {
	if c.Sentinel != "" {
		return json.Marshal(c.Sentinel)
	}
	return json.Marshal(c.Number)
}

func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		c.Number = n
		c.Sentinel = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("error code must be a number or string: %s", data)
	}
	c.Sentinel = s
	return nil
}

// PlotInfo identifies one open plot for listings and disambiguation.
type PlotInfo struct {
	Filename string `json:"filename"` // Short display name, e.g. "atlantic.plot.json"
	Title    string `json:"title"`    // Filename minus extension
}

// CommandError is the structured failure a handler returns. It maps 1:1 to
// the WireError sent to the client.
type CommandError struct {
	Message        string
	Code           ErrorCode
	AvailablePlots []PlotInfo
}

func (e *CommandError) Error() string {
	return e.Message
}

// Wire converts the error to its wire payload.
func (e *CommandError) Wire() *WireError {
	return &WireError{
		Message:        e.Message,
		Code:           e.Code,
		AvailablePlots: e.AvailablePlots,
	}
}

// NotFoundError reports a missing document or file.
func NotFoundError(format string, a ...any) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf(format, a...),
		Code:    ErrorCode{Number: CodeNotFound},
	}
}

// InvalidInputError reports malformed parameters or failed validation.
// The message names the offending field, the constraint, and the value so
// automated callers can self-correct.
func InvalidInputError(format string, a ...any) *CommandError {
	return &CommandError{
		Message: fmt.Sprintf(format, a...),
		Code:    ErrorCode{Number: CodeInvalidInput},
	}
}

// InternalError reports an unexpected handler failure. The wire message is
// generic; detail belongs in the server log.
func InternalError(message string) *CommandError {
	return &CommandError{
		Message: message,
		Code:    ErrorCode{Number: CodeInternal},
	}
}

// MultiplePlotsError asks the caller to re-issue the command with an
// explicit filename, carrying the full open list for the choice.
func MultiplePlotsError(plots []PlotInfo) *CommandError {
	return &CommandError{
		Message:        MultiplePlotsMsg,
		Code:           ErrorCode{Sentinel: CodeMultiplePlots},
		AvailablePlots: plots,
	}
}

// TimeState is the per-plot time slice: the current instant plus the
// enclosing analysis range. All values are ISO-8601 timestamps.
type TimeState struct {
	Current string `json:"current,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// ViewportState is the per-plot map view as [west, south, east, north]
// degree bounds. West greater than east means the view crosses the
// antimeridian.
type ViewportState struct {
	Bounds []float64 `json:"bounds"`
}
