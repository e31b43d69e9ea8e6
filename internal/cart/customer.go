package cart

import "strings"

// CustomerInfo holds the shipping/contact fields captured at the
// information step. Created empty and fully overwritten on capture - never
// partially merged afterward.
type CustomerInfo struct {
	Email       string
	FullName    string
	AddressLine string
	City        string
	PostalCode  string
	Phone       string // optional
}

// Trimmed returns a copy with all fields whitespace-trimmed. Capture sites
// call this before storing so validation and the order payload see clean
// values.
func (ci CustomerInfo) Trimmed() CustomerInfo {
	return CustomerInfo{
		Email:       strings.TrimSpace(ci.Email),
		FullName:    strings.TrimSpace(ci.FullName),
		AddressLine: strings.TrimSpace(ci.AddressLine),
		City:        strings.TrimSpace(ci.City),
		PostalCode:  strings.TrimSpace(ci.PostalCode),
		Phone:       strings.TrimSpace(ci.Phone),
	}
}

// Validate reports whether the required fields are non-empty after
// trimming. Phone is optional. The message is user-facing; validation
// failures block step advancement but never panic.
func (ci CustomerInfo) Validate() (ok bool, message string) {
	t := ci.Trimmed()
	if t.Email == "" || t.FullName == "" || t.AddressLine == "" || t.City == "" || t.PostalCode == "" {
		return false, "Por favor completa todos los campos"
	}
	return true, ""
}
