package runtime

import (
	"errors"
	"time"

	modelpkg "waymark.ai/internal/sim/world/kernel/model"
)

var ErrUnauthorizedTick = errors.New("movement_tick may not be invoked by clients")

// NominalInterval is the fixed tick interval for a rate in Hz.
func NominalInterval(tickRateHz int) time.Duration {
	if tickRateHz <= 0 {
		tickRateHz = 30
	}
	return time.Second / time.Duration(tickRateHz)
}

// AuthorizeTick rejects any caller other than the world's own scheduler identity.
func AuthorizeTick(caller, system modelpkg.Identity) error {
	if system == "" || caller != system {
		return ErrUnauthorizedTick
	}
	return nil
}

// TickDelta returns the elapsed seconds between last and now. It falls back to nominal when
// there is no previous tick or the clock went backwards.
func TickDelta(last, now time.Time, nominal time.Duration) float64 {
	if last.IsZero() || now.Before(last) {
		return nominal.Seconds()
	}
	return now.Sub(last).Seconds()
}
