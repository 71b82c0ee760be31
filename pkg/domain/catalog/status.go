package catalog

import (
	"encoding/json"
	"fmt"
)

// AuditStatus is the verdict of an audit for one specification.
type AuditStatus string

const (
	StatusCorrect   AuditStatus = "correct"
	StatusIncorrect AuditStatus = "incorrect"
)

// IsValid returns true if the status is one of the two known verdicts.
func (s AuditStatus) IsValid() bool {
	return s == StatusCorrect || s == StatusIncorrect
}

func (s AuditStatus) String() string {
	return string(s)
}

// UnmarshalJSON rejects statuses other than correct and incorrect.
func (s *AuditStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	status := AuditStatus(raw)
	if !status.IsValid() {
		return fmt.Errorf("invalid audit status %q", raw)
	}
	*s = status
	return nil
}
