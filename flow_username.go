package guauth

import (
	"context"
	"errors"
	"time"
)

const msgUsernameTaken = "Username already exists."

// SetUsername records the candidate handle and drives the availability
// sub-protocol: while on the username step, a non-empty edit schedules a
// check after the configured quiet period, cancelling any pending or
// in-flight one; an edit that empties the field clears the check error
// without scheduling anything. A cancelled check's late result never
// touches state.
func (f *Flow) SetUsername(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Username == v {
		return
	}
	f.state.Username = v

	if f.state.Step != StepUsernameEntry {
		return
	}

	f.invalidateUsernameCheckLocked()

	if v == "" {
		f.state.UsernameCheckError = ""
		return
	}

	gen := f.checkGen
	f.checkTimer = time.AfterFunc(f.cfg.UsernameCheck.Debounce, func() {
		f.runUsernameCheck(gen, v)
	})
}

// invalidateUsernameCheckLocked bumps the generation and tears down the
// pending timer and in-flight request. Anything carrying an older
// generation becomes a no-op.
func (f *Flow) invalidateUsernameCheckLocked() {
	f.checkGen++
	if f.checkTimer != nil {
		if f.checkTimer.Stop() {
			f.metrics.Inc(MetricUsernameCheckCancelled)
		}
		f.checkTimer = nil
	}
	if f.checkCancel != nil {
		f.checkCancel()
		f.checkCancel = nil
		// The canceller, not the cancelled check, releases the loading flag.
		f.state.IsLoading = false
		f.metrics.Inc(MetricUsernameCheckCancelled)
	}
}

// runUsernameCheck fires when the quiet period elapses. gen pins the edit
// that scheduled it; the check proceeds only if no newer edit arrived and
// the flow is still on the username step.
func (f *Flow) runUsernameCheck(gen uint64, username string) {
	f.mu.Lock()
	if gen != f.checkGen || f.state.Step != StepUsernameEntry {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.UsernameCheck.Timeout)
	f.checkCancel = cancel
	f.checkTimer = nil
	f.state.IsLoading = true
	f.state.UsernameCheckError = ""
	f.mu.Unlock()

	resp, err := f.api.CheckUsername(ctx, username)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.checkGen {
		// Cancelled mid-flight: the newer edit owns the state now.
		return
	}
	f.checkCancel = nil
	f.state.IsLoading = false
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		f.state.UsernameCheckError = errorMessage(err, "Could not check username availability.")
	case !resp.IsAvailable:
		f.state.UsernameCheckError = messageOr(resp.Message, msgUsernameTaken)
	default:
		f.state.UsernameCheckError = ""
	}
}
