package guauth

import (
	"context"
	"sync"
	"time"
)

// AuthAPI is the backend surface the flow controller consumes. *Client
// implements it; tests substitute their own.
type AuthAPI interface {
	RequestOTP(ctx context.Context, mobileNumber string) (StatusResponse, error)
	VerifyOTP(ctx context.Context, mobileNumber, otp string) (AuthResponse, error)
	CheckUsername(ctx context.Context, username string) (UsernameAvailability, error)
	Register(ctx context.Context, mobileNumber, username string, dateOfBirth time.Time, password string) (AuthResponse, error)
	Login(ctx context.Context, mobileNumber, password string) (AuthResponse, error)
	ResetPassword(ctx context.Context, mobileNumber, password string) (StatusResponse, error)
	Logout(ctx context.Context)
	Session() Session
	SessionChanges() <-chan SessionChange
}

// User-facing fallback messages, used when the backend supplies none.
const (
	msgOTPRequestFailed  = "Could not send the verification code. Please try again."
	msgOTPVerifyFailed   = "OTP Verification Failed. Please try again."
	msgUsernameInvalid   = "Please enter a valid and available username."
	msgDOBMissing        = "Please select your date of birth."
	msgPasswordsMismatch = "Passwords do not match."
	msgPasswordPolicy    = "Password does not meet the requirements."
	msgRegisterFailed    = "Registration failed. Please try again."
	msgLoginMissing      = "Please enter your mobile number and password."
	msgLoginFailed       = "Login failed. Please try again."
	msgResetFailed       = "Could not reset the password. Please try again."
	msgMobileMissing     = "Please enter your mobile number."
)

// Flow sequences the registration, login, and password-reset steps. It is
// the single owner of [FlowState]: mutators and actions serialize on one
// mutex, async actions release it for the duration of the network call and
// re-enter to publish the result. The flow also watches the session — a
// token appearing from any code path promotes to StepAuthenticated, a token
// vanishing while authenticated triggers a full reset.
//
// A second submit while a flow action is outstanding is ignored.
type Flow struct {
	api     AuthAPI
	cfg     Config
	events  *eventDispatcher
	metrics *Metrics

	mu    sync.Mutex
	state FlowState

	// Username availability sub-protocol. checkGen invalidates both the
	// pending debounce timer and the in-flight request; a stale generation
	// must never touch state.
	checkGen    uint64
	checkTimer  *time.Timer
	checkCancel context.CancelFunc

	changes   <-chan SessionChange
	done      chan struct{}
	closeOnce sync.Once
}

// NewFlow returns a started flow controller over api. If a valid session
// already exists the flow starts at StepAuthenticated, otherwise at
// StepEntry. Close must be called to release the session watcher.
func NewFlow(api AuthAPI, cfg Config) (*Flow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newFlow(api, cfg, nil, nil), nil
}

// NewFlow returns a started flow controller sharing the client's
// configuration, event dispatcher, and metrics.
func (c *Client) NewFlow() *Flow {
	return newFlow(c, c.cfg, c.events, c.metrics)
}

func newFlow(api AuthAPI, cfg Config, events *eventDispatcher, metrics *Metrics) *Flow {
	f := &Flow{
		api:     api,
		cfg:     cfg,
		events:  events,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	// Subscribe before reading the session: a login completing in this
	// window is then either seen by the initial-step read or queued for the
	// watcher, never lost between the two.
	f.changes = api.SessionChanges()
	f.state = f.freshState()
	f.state.Step = StepEntry
	if api.Session().Authenticated() {
		f.state.Step = StepAuthenticated
	}
	go f.watchSession()
	return f
}

// freshState is the post-reset form state: everything defaulted, country
// dial code and flag from the configured default country.
func (f *Flow) freshState() FlowState {
	country, _ := CountryByCode(f.cfg.Country.Default)
	return FlowState{
		Step:            f.cfg.Flow.ResetStep,
		CountryDialCode: country.DialCode,
		CountryFlag:     country.Flag,
	}
}

// Close stops the session watcher and cancels any pending username check.
func (f *Flow) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
	f.mu.Lock()
	f.invalidateUsernameCheckLocked()
	f.mu.Unlock()
}

// State returns a copy of the current form state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Step
}

/*
====================================
SESSION REACTIONS
====================================
*/

// watchSession consumes session changes strictly in order; each reaction,
// including a triggered reset, completes before the next change is taken.
func (f *Flow) watchSession() {
	for {
		select {
		case change, ok := <-f.changes:
			if !ok {
				return
			}
			f.reactToSessionChange(change)
		case <-f.done:
			return
		}
	}
}

func (f *Flow) reactToSessionChange(change SessionChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case change.Current.Authenticated() && f.state.Step != StepAuthenticated:
		f.state.Password = ""
		f.state.ConfirmPassword = ""
		f.state.OTP = ""
		f.setStepLocked(StepAuthenticated)
	case !change.Current.Authenticated() && f.state.Step == StepAuthenticated:
		f.resetLocked(context.Background())
	}
}

// resetLocked restores the post-reset state and makes sure the client side
// of the session is gone too. Logout on an already-cleared session is a
// no-op, so the reset does not echo back through the watcher.
func (f *Flow) resetLocked(ctx context.Context) {
	f.invalidateUsernameCheckLocked()
	f.state = f.freshState()
	f.metrics.Inc(MetricFlowReset)
	f.emit(Event{Type: EventFlowReset, Step: f.state.Step, Success: true})
	f.api.Logout(ctx)
}

// Reset abandons the flow: clears every field, issues a logout, and returns
// to the configured reset step.
func (f *Flow) Reset(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked(ctx)
}

func (f *Flow) setStepLocked(next Step) {
	if f.state.Step == next {
		return
	}
	from := f.state.Step
	f.state.Step = next
	f.emit(Event{
		Type:    EventStepChanged,
		Step:    next,
		Success: true,
		Metadata: map[string]string{
			"from": string(from),
		},
	})
}

func (f *Flow) emit(event Event) {
	f.events.Emit(context.Background(), event)
}

/*
====================================
FORM MUTATORS
====================================
*/

// SetMobileNumber records the national part of the mobile number.
func (f *Flow) SetMobileNumber(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.MobileNumber = v
}

// SetCountry records the picked dial code and flag.
func (f *Flow) SetCountry(c Country) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.CountryDialCode = c.DialCode
	f.state.CountryFlag = c.Flag
}

// SetOTP records the one-time code as typed.
func (f *Flow) SetOTP(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.OTP = v
}

// SetDateOfBirth records the calendar date. The zero time means "cleared".
func (f *Flow) SetDateOfBirth(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.DateOfBirth = t
}

// SetPassword records the candidate password.
func (f *Flow) SetPassword(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Password = v
}

// SetConfirmPassword records the confirmation field.
func (f *Flow) SetConfirmPassword(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.ConfirmPassword = v
}

// PasswordReport evaluates the current password pair against the policy,
// for checklist rendering.
func (f *Flow) PasswordReport() PasswordReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.Password.CheckPassword(f.state.Password, f.state.ConfirmPassword)
}

/*
====================================
NAVIGATION ACTIONS
====================================
*/

// StartRegistration enters the registration path. Reachable from any
// non-authenticated step, including back out of the login page.
func (f *Flow) StartRegistration() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step == StepAuthenticated {
		return
	}
	f.state.ErrorMessage = ""
	f.setStepLocked(StepMobileRegistration)
}

// StartLogin enters the direct login path from the entry page.
func (f *Flow) StartLogin() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step != StepEntry {
		return
	}
	f.state.ErrorMessage = ""
	f.setStepLocked(StepLogin)
}

// SubmitUsername advances to date-of-birth entry. Pure navigation: the
// availability check already ran against the backend.
func (f *Flow) SubmitUsername() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step != StepUsernameEntry || f.state.IsLoading {
		return
	}
	if f.state.Username == "" || f.state.UsernameCheckError != "" {
		f.state.ErrorMessage = msgUsernameInvalid
		return
	}
	f.invalidateUsernameCheckLocked()
	f.state.ErrorMessage = ""
	f.setStepLocked(StepDOBEntry)
}

// SubmitDateOfBirth advances to password creation. Pure navigation.
func (f *Flow) SubmitDateOfBirth() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step != StepDOBEntry {
		return
	}
	if f.state.DateOfBirth.IsZero() {
		f.state.ErrorMessage = msgDOBMissing
		return
	}
	f.state.ErrorMessage = ""
	f.setStepLocked(StepCreatePassword)
}

/*
====================================
ASYNC ACTIONS
====================================
*/

// SubmitMobileNumber requests an OTP for the entered number and advances to
// OTP verification on success.
func (f *Flow) SubmitMobileNumber(ctx context.Context) {
	f.requestOTP(ctx, StepMobileRegistration, StepOTPVerificationRegister)
}

// StartPasswordReset requests a reset OTP for the entered number from the
// login page and advances to the reset OTP verification on success.
func (f *Flow) StartPasswordReset(ctx context.Context) {
	f.requestOTP(ctx, StepLogin, StepOTPVerificationReset)
}

func (f *Flow) requestOTP(ctx context.Context, from, to Step) {
	f.mu.Lock()
	if f.state.Step != from || f.state.IsLoading {
		f.mu.Unlock()
		return
	}
	if f.state.MobileNumber == "" {
		f.state.ErrorMessage = msgMobileMissing
		f.mu.Unlock()
		return
	}
	mobile := f.state.FullMobileNumber()
	f.state.IsLoading = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	resp, err := f.api.RequestOTP(ctx, mobile)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsLoading = false
	if f.state.Step != from {
		return
	}
	switch {
	case err != nil:
		f.state.ErrorMessage = errorMessage(err, msgOTPRequestFailed)
	case !resp.Success:
		f.state.ErrorMessage = messageOr(resp.Message, msgOTPRequestFailed)
	default:
		f.setStepLocked(to)
	}
}

// SubmitOTP verifies the entered code. On the registration path a verified
// code advances to username entry; on the reset path, to the new-password
// step. The code must have the configured digit count before any call.
func (f *Flow) SubmitOTP(ctx context.Context) {
	f.mu.Lock()
	from := f.state.Step
	if from != StepOTPVerificationRegister && from != StepOTPVerificationReset {
		f.mu.Unlock()
		return
	}
	if f.state.IsLoading {
		f.mu.Unlock()
		return
	}
	if len(f.state.OTP) != f.cfg.Flow.OTPLength {
		f.state.ErrorMessage = msgOTPVerifyFailed
		f.mu.Unlock()
		return
	}
	mobile := f.state.FullMobileNumber()
	otp := f.state.OTP
	f.state.IsLoading = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	resp, err := f.api.VerifyOTP(ctx, mobile, otp)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsLoading = false
	if f.state.Step != from {
		return
	}
	switch {
	case err != nil:
		f.state.ErrorMessage = errorMessage(err, msgOTPVerifyFailed)
	case !resp.Success:
		f.state.ErrorMessage = messageOr(resp.Message, msgOTPVerifyFailed)
	case from == StepOTPVerificationRegister:
		f.setStepLocked(StepUsernameEntry)
	default:
		f.setStepLocked(StepResetPassword)
	}
}

// SubmitRegistration performs the final registration call. On success the
// secrets are cleared and the flow is authenticated.
func (f *Flow) SubmitRegistration(ctx context.Context) {
	f.mu.Lock()
	if f.state.Step != StepCreatePassword || f.state.IsLoading {
		f.mu.Unlock()
		return
	}
	if f.state.ConfirmPassword == "" || f.state.Password != f.state.ConfirmPassword {
		f.state.ErrorMessage = msgPasswordsMismatch
		f.mu.Unlock()
		return
	}
	if !f.cfg.Password.submittable(f.state.Password, f.state.ConfirmPassword) {
		f.state.ErrorMessage = msgPasswordPolicy
		f.mu.Unlock()
		return
	}
	if f.state.DateOfBirth.IsZero() {
		f.state.ErrorMessage = msgDOBMissing
		f.mu.Unlock()
		return
	}
	mobile := f.state.FullMobileNumber()
	username := f.state.Username
	dob := f.state.DateOfBirth
	password := f.state.Password
	f.state.IsLoading = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	resp, err := f.api.Register(ctx, mobile, username, dob, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsLoading = false
	if f.state.Step != StepCreatePassword {
		return
	}
	switch {
	case err != nil:
		f.state.ErrorMessage = errorMessage(err, msgRegisterFailed)
	case !resp.Success:
		f.state.ErrorMessage = messageOr(resp.Message, msgRegisterFailed)
	default:
		f.state.Password = ""
		f.state.ConfirmPassword = ""
		f.state.OTP = ""
		f.setStepLocked(StepAuthenticated)
	}
}

// SubmitLogin authenticates with the entered number and password, clearing
// the password on success.
func (f *Flow) SubmitLogin(ctx context.Context) {
	f.mu.Lock()
	if f.state.Step != StepLogin || f.state.IsLoading {
		f.mu.Unlock()
		return
	}
	if f.state.MobileNumber == "" || f.state.Password == "" {
		f.state.ErrorMessage = msgLoginMissing
		f.mu.Unlock()
		return
	}
	mobile := f.state.FullMobileNumber()
	password := f.state.Password
	f.state.IsLoading = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	resp, err := f.api.Login(ctx, mobile, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsLoading = false
	if f.state.Step != StepLogin {
		return
	}
	switch {
	case err != nil:
		f.state.ErrorMessage = errorMessage(err, msgLoginFailed)
	case !resp.Success:
		f.state.ErrorMessage = messageOr(resp.Message, msgLoginFailed)
	default:
		f.state.Password = ""
		f.setStepLocked(StepAuthenticated)
	}
}

// SubmitNewPassword replaces the password after a verified reset OTP. The
// backend issues no credentials here, so the flow returns to the login step
// and the user authenticates explicitly.
func (f *Flow) SubmitNewPassword(ctx context.Context) {
	f.mu.Lock()
	if f.state.Step != StepResetPassword || f.state.IsLoading {
		f.mu.Unlock()
		return
	}
	if f.state.ConfirmPassword == "" || f.state.Password != f.state.ConfirmPassword {
		f.state.ErrorMessage = msgPasswordsMismatch
		f.mu.Unlock()
		return
	}
	if !f.cfg.Password.submittable(f.state.Password, f.state.ConfirmPassword) {
		f.state.ErrorMessage = msgPasswordPolicy
		f.mu.Unlock()
		return
	}
	mobile := f.state.FullMobileNumber()
	password := f.state.Password
	f.state.IsLoading = true
	f.state.ErrorMessage = ""
	f.mu.Unlock()

	resp, err := f.api.ResetPassword(ctx, mobile, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsLoading = false
	if f.state.Step != StepResetPassword {
		return
	}
	switch {
	case err != nil:
		f.state.ErrorMessage = errorMessage(err, msgResetFailed)
	case !resp.Success:
		f.state.ErrorMessage = messageOr(resp.Message, msgResetFailed)
	default:
		f.state.Password = ""
		f.state.ConfirmPassword = ""
		f.state.OTP = ""
		f.setStepLocked(StepLogin)
	}
}

// Logout clears the session and performs a full flow reset.
func (f *Flow) Logout(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Step != StepAuthenticated {
		return
	}
	f.resetLocked(ctx)
}

// FullMobileNumber is the dial code and national number joined, the value
// submitted to the backend.
func (s FlowState) FullMobileNumber() string {
	return s.CountryDialCode + s.MobileNumber
}

// messageOr prefers the backend-provided message over the fallback.
func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
