package domain

import "errors"

// ErrBusy is returned when a run or action is requested while another one
// holds the execution slot. Runs and actions are mutually exclusive.
var ErrBusy = errors.New("engine busy: a run or action is already active")

// ErrUnknownAction is returned when an action request names an action the
// registry does not know.
var ErrUnknownAction = errors.New("unknown action")

// ErrRecordNotFound is returned when a history record ID cannot be found in
// the store.
var ErrRecordNotFound = errors.New("history record not found")
