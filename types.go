package guauth

import "time"

// StatusResponse is the backend acknowledgement for calls that carry no
// credentials, such as the OTP request and the password reset.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthResponse is returned by OTP verification, registration, and login.
// Token and UserID are present only when the backend issued credentials.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// UsernameAvailability is returned by the username-availability check.
type UsernameAvailability struct {
	IsAvailable bool   `json:"isAvailable"`
	Message     string `json:"message,omitempty"`
}

// Session is the backend-issued credential pair. Token and UserID are set
// and cleared together; a Session with an empty token is unauthenticated.
type Session struct {
	Token  string
	UserID string
}

// Authenticated reports whether the session holds credentials.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}

// SessionChange is delivered to subscribers whenever the session is set or
// cleared. Changes are delivered in the order they occurred.
type SessionChange struct {
	Previous Session
	Current  Session
}

// Step identifies the screen-level stage of the authentication flow.
type Step string

const (
	// StepEntry is the unauthenticated landing stage where the user picks
	// registration or login.
	StepEntry Step = "entry"
	// StepMobileRegistration collects the mobile number and requests an OTP.
	StepMobileRegistration Step = "mobileRegistration"
	// StepOTPVerificationRegister verifies the OTP on the registration path.
	StepOTPVerificationRegister Step = "otpVerificationRegister"
	// StepOTPVerificationReset verifies the OTP on the password-reset path.
	StepOTPVerificationReset Step = "otpVerificationReset"
	// StepUsernameEntry collects the candidate handle and checks availability.
	StepUsernameEntry Step = "usernameEntry"
	// StepDOBEntry collects the date of birth.
	StepDOBEntry Step = "dobEntry"
	// StepCreatePassword collects the password pair and performs registration.
	StepCreatePassword Step = "createPassword"
	// StepResetPassword collects the replacement password after a reset OTP.
	StepResetPassword Step = "resetPassword"
	// StepLogin is the direct login path.
	StepLogin Step = "login"
	// StepAuthenticated is the terminal stage of a successful flow.
	StepAuthenticated Step = "authenticated"
)

// valid reports whether s is one of the enumerated steps.
func (s Step) valid() bool {
	switch s {
	case StepEntry, StepMobileRegistration, StepOTPVerificationRegister,
		StepOTPVerificationReset, StepUsernameEntry, StepDOBEntry,
		StepCreatePassword, StepResetPassword, StepLogin, StepAuthenticated:
		return true
	}
	return false
}

// FlowState is a point-in-time copy of the flow's form state. The zero
// DateOfBirth means "not captured yet".
type FlowState struct {
	Step            Step
	MobileNumber    string
	CountryDialCode string
	CountryFlag     string
	OTP             string
	Username        string
	DateOfBirth     time.Time
	Password        string
	ConfirmPassword string

	IsLoading          bool
	ErrorMessage       string
	UsernameCheckError string
}
