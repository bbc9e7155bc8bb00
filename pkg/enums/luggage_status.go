package enums

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LuggageStatus tracks where a luggage task stands at the desk.
type LuggageStatus string

const (
	LuggageStatusPending    LuggageStatus = "PENDING"
	LuggageStatusDelivering LuggageStatus = "DELIVERING"
	LuggageStatusDone       LuggageStatus = "DONE"
	// LuggageStatusUnknown is what stored values outside the known set read back as.
	LuggageStatusUnknown LuggageStatus = "UNKNOWN"
)

var writableLuggageStatuses = []LuggageStatus{
	LuggageStatusPending,
	LuggageStatusDelivering,
	LuggageStatusDone,
}

// IsValid reports whether the status may be written through the API.
func (s LuggageStatus) IsValid() bool {
	for _, candidate := range writableLuggageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s LuggageStatus) String() string {
	return string(s)
}

// ParseLuggageStatus converts client input, case-insensitively, into a writable status.
func ParseLuggageStatus(value string) (LuggageStatus, error) {
	normalized := LuggageStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid luggage status %q", value)
}

// NormalizeLuggageStatus maps stored values onto the closed set, defaulting to UNKNOWN.
func NormalizeLuggageStatus(value string) LuggageStatus {
	if status, err := ParseLuggageStatus(value); err == nil {
		return status
	}
	return LuggageStatusUnknown
}

// UnmarshalJSON accepts any casing of a known status.
func (s *LuggageStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseLuggageStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
