package captions

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var millisPerSecond = decimal.NewFromInt(1000)

// RawSegment is one utterance returned by a transcription backend. Times are
// seconds relative to the start of the chunk it was transcribed from.
type RawSegment struct {
	Start decimal.Decimal
	End   decimal.Decimal
	Text  string
}

// Caption is a finalized subtitle entry on the global timeline.
type Caption struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns how long the caption is displayed.
func (c Caption) Duration() time.Duration {
	return c.End - c.Start
}

// Validate reports whether the segment can be placed on a timeline.
func (s RawSegment) Validate() error {
	if s.Start.IsNegative() {
		return fmt.Errorf("start %ss is negative", s.Start.String())
	}
	if s.End.LessThan(s.Start) {
		return fmt.Errorf("end %ss is before start %ss", s.End.String(), s.Start.String())
	}
	return nil
}

// SecondsToDuration converts decimal seconds to a duration rounded to the
// nearest millisecond.
func SecondsToDuration(seconds decimal.Decimal) time.Duration {
	ms := seconds.Mul(millisPerSecond).Round(0).IntPart()
	return time.Duration(ms) * time.Millisecond
}

// DurationToSeconds renders d as decimal seconds with millisecond precision.
func DurationToSeconds(d time.Duration) decimal.Decimal {
	return decimal.New(d.Milliseconds(), -3)
}
