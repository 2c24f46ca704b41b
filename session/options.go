package session

import (
	"time"

	"pdf-vector-uploader/utils"
)

const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultTickStep     = 5
	DefaultProgressCap  = 95
	DefaultDoneHold     = time.Second
)

// Options tune the controller. Zero values take the defaults above.
type Options struct {
	TickInterval time.Duration
	TickStep     int
	ProgressCap  int
	DoneHold     time.Duration
	// Timeout bounds one run when > 0
	Timeout time.Duration
	Journal Journal
	Logger  *utils.Logger
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.TickStep <= 0 {
		o.TickStep = DefaultTickStep
	}
	if o.ProgressCap <= 0 || o.ProgressCap > 100 {
		o.ProgressCap = DefaultProgressCap
	}
	if o.DoneHold <= 0 {
		o.DoneHold = DefaultDoneHold
	}
	if o.Logger == nil {
		o.Logger = utils.NewNopLogger()
	}
	return o
}
