package crm

import "strings"

// ValidateClient checks a manually entered client. Name and phone are
// required.
func ValidateClient(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "is required"}
	}
	return nil
}

// ValidatePolicy checks a manually entered policy. The form always
// supplies real dates, so unlike import both dates must be ISO.
func ValidatePolicy(p Policy) error {
	if p.ClientID <= 0 {
		return &ValidationError{Field: "client_id", Message: "is required"}
	}
	if _, err := ParseDate(p.IssuedDate); err != nil {
		return &ValidationError{Field: "issued_date", Message: "must be YYYY-MM-DD"}
	}
	if _, err := ParseDate(p.ExpiryDate); err != nil {
		return &ValidationError{Field: "expiry_date", Message: "must be YYYY-MM-DD"}
	}
	if p.Premium.IsNegative() {
		return &ValidationError{Field: "premium", Message: "must not be negative"}
	}
	return nil
}
