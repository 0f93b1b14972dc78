package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of DateOfBirth
const DateLayout = "2006-01-02"

// yearLength is the average year used for age derivation
const yearLength = time.Duration(365.25 * 24 * float64(time.Hour))

// PatientID is the opaque identity of a patient.
// The directory may send it as a JSON number or a JSON string.
type PatientID string

// UnmarshalJSON accepts both numeric and string ids
func (id *PatientID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PatientID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("patient id must be a string or number: %w", err)
	}
	*id = PatientID(n.String())
	return nil
}

// PatientSummary is the patient record shown by the search widget.
// Values are immutable once received; copy instead of mutating.
type PatientSummary struct {
	ID            PatientID `json:"id"`
	PatientNumber string    `json:"patientId,omitempty"` // formatted id like "P-000001"
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty"`
	Age           *int      `json:"age,omitempty"` // backend-computed age, used when DateOfBirth is missing
	Phone         string    `json:"phoneNumber,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
}

// PatientInfo holds display strings for a patient row
type PatientInfo struct {
	FullName string
	Age      string
	Phone    string
	Email    string
	Address  string
}

// DisplayName returns the name shown in lists
func (p PatientSummary) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	return p.PatientNumber
}

// AgeAt returns the age in whole years at now.
// DateOfBirth wins over the backend Age field.
func (p PatientSummary) AgeAt(now time.Time) (int, bool) {
	if p.DateOfBirth != "" {
		dob, err := time.ParseInLocation(DateLayout, p.DateOfBirth, now.Location())
		if err == nil && !dob.After(now) {
			return int(now.Sub(dob) / yearLength), true
		}
	}
	if p.Age != nil && *p.Age >= 0 {
		return *p.Age, true
	}
	return 0, false
}

// Info formats the patient for display, using "N/A" for missing values
func (p PatientSummary) Info(now time.Time) PatientInfo {
	info := PatientInfo{
		FullName: p.DisplayName(),
		Age:      "N/A",
		Phone:    orNA(p.Phone),
		Email:    orNA(p.Email),
		Address:  orNA(p.Address),
	}
	if age, ok := p.AgeAt(now); ok && age > 0 {
		info.Age = fmt.Sprintf("%d years", age)
	}
	return info
}

// Matches reports whether text occurs in the name, patient number, phone or email.
// Matching is case-insensitive.
func (p PatientSummary) Matches(text string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return false
	}
	for _, field := range []string{p.DisplayName(), p.FirstName, p.LastName, p.PatientNumber, p.Phone, p.Email} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// SameIDs reports whether two lists hold the same ids in the same order
func SameIDs(a, b []PatientSummary) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
