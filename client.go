package guauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Endpoint paths are a boundary contract with the backend gateway.
const (
	pathRequestOTP    = "api/user/verification/"
	pathVerifyOTP     = "api/user/verification/check"
	pathCheckUsername = "api/user/checkUsername"
	pathSignup        = "api/user/signup"
	pathSignin        = "api/user/signin"
	pathResetPassword = "api/user/resetPassword"
)

// dateOfBirthLayout is ISO-8601 with fractional seconds, as the signup
// endpoint expects.
const dateOfBirthLayout = "2006-01-02T15:04:05.000Z07:00"

// Client is the typed wrapper over the backend authentication endpoints. It
// owns the persisted session: successful verify/register/login responses set
// it, logout and any 401 response clear it. Construct through [Builder].
//
// Client methods are safe to call from multiple goroutines.
type Client struct {
	cfg     Config
	httpc   *http.Client
	base    *url.URL
	session *sessionHolder
	events  *eventDispatcher
	metrics *Metrics
}

// Session returns the current credential pair.
func (c *Client) Session() Session {
	return c.session.Current()
}

// SessionChanges subscribes to ordered session change notifications.
func (c *Client) SessionChanges() <-chan SessionChange {
	return c.session.Subscribe()
}

// MetricsSnapshot copies the client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// EventsDropped reports how many events the dispatcher dropped.
func (c *Client) EventsDropped() uint64 {
	return c.events.Dropped()
}

// Close flushes and stops the event dispatcher. The client is unusable for
// event emission afterwards; requests still work.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.events.Close()
}

// RequestOTP asks the backend to send a one-time code to mobileNumber. No
// session change.
func (c *Client) RequestOTP(ctx context.Context, mobileNumber string) (StatusResponse, error) {
	var out StatusResponse
	err := c.postJSON(ctx, pathRequestOTP, map[string]string{
		"mobileNumber": mobileNumber,
	}, false, &out)
	c.observe(ctx, EventOTPRequested, MetricOTPRequestSuccess, MetricOTPRequestFailure, "", err == nil && out.Success, err)
	if err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// VerifyOTP checks the one-time code. On success with credentials present,
// the session is set.
func (c *Client) VerifyOTP(ctx context.Context, mobileNumber, otp string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, pathVerifyOTP, map[string]string{
		"mobileNumber": mobileNumber,
		"otp":          otp,
	}, false, &out)
	c.adoptCredentials(ctx, out, err)
	c.observe(ctx, EventOTPVerified, MetricOTPVerifySuccess, MetricOTPVerifyFailure, out.UserID, err == nil && out.Success, err)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// CheckUsername asks whether username is free. Cancellable mid-flight via
// ctx; no session change.
func (c *Client) CheckUsername(ctx context.Context, username string) (UsernameAvailability, error) {
	var out UsernameAvailability
	err := c.postJSON(ctx, pathCheckUsername, map[string]string{
		"username": username,
	}, false, &out)
	if err != nil {
		return UsernameAvailability{}, err
	}
	c.metrics.Inc(MetricUsernameCheck)
	c.events.Emit(ctx, Event{
		Type:    EventUsernameChecked,
		Success: out.IsAvailable,
		Metadata: map[string]string{
			"username": username,
		},
	})
	return out, nil
}

// Register creates the account. On success with credentials present, the
// session is set.
func (c *Client) Register(ctx context.Context, mobileNumber, username string, dateOfBirth time.Time, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, pathSignup, map[string]string{
		"mobileNumber": mobileNumber,
		"username":     username,
		"dateOfBirth":  dateOfBirth.UTC().Format(dateOfBirthLayout),
		"password":     password,
	}, false, &out)
	c.adoptCredentials(ctx, out, err)
	c.observe(ctx, EventRegistered, MetricRegisterSuccess, MetricRegisterFailure, out.UserID, err == nil && out.Success, err)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// Login authenticates with the phone number and password. The signin
// endpoint takes a form-encoded body with the number in the email field and
// a fixed Phone login type. On success with credentials present, the session
// is set.
func (c *Client) Login(ctx context.Context, mobileNumber, password string) (AuthResponse, error) {
	form := url.Values{}
	form.Set("email", mobileNumber)
	form.Set("password", password)
	form.Set("login_type", "Phone")

	var out AuthResponse
	err := c.post(ctx, pathSignin, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false, &out)
	c.adoptCredentials(ctx, out, err)
	c.observe(ctx, EventLoggedIn, MetricLoginSuccess, MetricLoginFailure, out.UserID, err == nil && out.Success, err)
	if err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

// ResetPassword replaces the password after a verified reset OTP. The
// endpoint never returns credentials; the caller must log in afterwards.
func (c *Client) ResetPassword(ctx context.Context, mobileNumber, password string) (StatusResponse, error) {
	var out StatusResponse
	err := c.postJSON(ctx, pathResetPassword, map[string]string{
		"mobileNumber": mobileNumber,
		"password":     password,
	}, false, &out)
	c.observe(ctx, EventPasswordReset, MetricPasswordResetSuccess, MetricPasswordResetFailure, "", err == nil && out.Success, err)
	if err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// Logout clears the session unconditionally. Side effect only; it cannot
// fail, and clearing an absent session is a no-op.
func (c *Client) Logout(ctx context.Context) {
	prev := c.session.Current()
	if c.session.clear(ctx) {
		c.metrics.Inc(MetricLogout)
		c.events.Emit(ctx, Event{
			Type:    EventLoggedOut,
			UserID:  prev.UserID,
			Success: true,
		})
	}
}

// adoptCredentials installs the session from a credential-bearing response.
// Token and user ID are adopted only together.
func (c *Client) adoptCredentials(ctx context.Context, resp AuthResponse, err error) {
	if err != nil || !resp.Success {
		return
	}
	if resp.Token == "" || resp.UserID == "" {
		return
	}
	c.session.set(ctx, resp.Token, resp.UserID)
}

func (c *Client) observe(ctx context.Context, typ EventType, onSuccess, onFailure MetricID, userID string, success bool, err error) {
	if success {
		c.metrics.Inc(onSuccess)
	} else {
		c.metrics.Inc(onFailure)
	}
	event := Event{
		Type:    typ,
		UserID:  userID,
		Success: success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	c.events.Emit(ctx, event)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, requiresAuth bool, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.post(ctx, path, bytes.NewReader(body), "application/json", requiresAuth, out)
}

// post performs one request and maps the outcome onto the package error
// taxonomy. A 401 from any request clears the session exactly once before
// ErrAuthenticationRequired is returned.
func (c *Client) post(ctx context.Context, path string, body io.Reader, contentType string, requiresAuth bool, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return ErrInvalidEndpoint
	}
	endpoint := c.base.ResolveReference(ref)

	token := c.session.Current().Token
	if requiresAuth && token == "" {
		return ErrAuthenticationRequired
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.API.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return ErrInvalidEndpoint
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if requiresAuth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx)
		return ErrAuthenticationRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{
			Code:    resp.StatusCode,
			Message: serverMessage(data),
		}
	}

	if out == nil {
		return nil
	}
	if len(data) == 0 {
		return ErrNoResponseBody
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// handleUnauthorized clears the session after an authentication-failure
// status. The holder guarantees at most one clear per transition, so one
// response never clears twice.
func (c *Client) handleUnauthorized(ctx context.Context) {
	prev := c.session.Current()
	if c.session.clear(ctx) {
		c.metrics.Inc(MetricSessionCleared401)
		c.events.Emit(ctx, Event{
			Type:   EventSessionCleared,
			UserID: prev.UserID,
		})
	}
}

// serverMessage pulls the backend's message field out of an error body,
// tolerating any other shape.
func serverMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}
