package guauth

import "strings"

// PasswordReport mirrors the per-rule checklist presentation layers render
// while the user types. A password is acceptable only when every rule flag
// is set and no character falls outside the allowed classes.
type PasswordReport struct {
	HasMinLength   bool
	HasLowercase   bool
	HasUppercase   bool
	HasNumber      bool
	HasSpecialChar bool
	// OnlyAllowedChars is false when the password contains characters
	// outside letters, digits, and the configured symbol set.
	OnlyAllowedChars bool
	// PasswordsMatch is true while the confirmation is empty (still typing)
	// or equal to the password.
	PasswordsMatch bool
}

// Valid reports whether the password satisfies the full policy.
func (r PasswordReport) Valid() bool {
	return r.HasMinLength && r.HasLowercase && r.HasUppercase &&
		r.HasNumber && r.HasSpecialChar && r.OnlyAllowedChars
}

// CheckPassword evaluates password and confirmation against the policy.
func (c PasswordConfig) CheckPassword(password, confirm string) PasswordReport {
	r := PasswordReport{
		HasMinLength:     len(password) >= c.MinLength,
		OnlyAllowedChars: true,
		PasswordsMatch:   confirm == "" || password == confirm,
	}
	for _, ch := range password {
		switch {
		case ch >= 'a' && ch <= 'z':
			r.HasLowercase = true
		case ch >= 'A' && ch <= 'Z':
			r.HasUppercase = true
		case ch >= '0' && ch <= '9':
			r.HasNumber = true
		case strings.ContainsRune(c.Symbols, ch):
			r.HasSpecialChar = true
		default:
			r.OnlyAllowedChars = false
		}
	}
	return r
}

// submittable reports whether the pair may be submitted: policy satisfied
// and a non-empty confirmation equal to the password. An empty confirmation
// is tolerated while typing but never on submit.
func (c PasswordConfig) submittable(password, confirm string) bool {
	return c.CheckPassword(password, confirm).Valid() && confirm != "" && password == confirm
}
