package clock

import "time"

// Clock lets usecases take "now" as a dependency so tests can pin time.
type Clock interface {
	Now() time.Time
}

type UTC struct{}

func (UTC) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant. Test helper.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }
