package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SignalType is the area a signal comes from
type SignalType string

const (
	SignalSector     SignalType = "sector"
	SignalPrice      SignalType = "price"
	SignalMacro      SignalType = "macro"
	SignalSmartMoney SignalType = "smart_money"
	SignalHolding    SignalType = "holding"
)

// ParseSignalType converts a user supplied string into a SignalType
func ParseSignalType(s string) (SignalType, error) {
	switch t := SignalType(s); t {
	case SignalSector, SignalPrice, SignalMacro, SignalSmartMoney, SignalHolding:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown signal type %q", ErrInvalidInput, s)
	}
}

// SignalSeverity orders signals from informative to critical
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityLow      SignalSeverity = "low"
	SeverityMedium   SignalSeverity = "medium"
	SeverityHigh     SignalSeverity = "high"
	SeverityCritical SignalSeverity = "critical"
)

// Severities returns every severity, least severe first
func Severities() []SignalSeverity {
	return []SignalSeverity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// ParseSignalSeverity converts a user supplied string into a SignalSeverity
func ParseSignalSeverity(s string) (SignalSeverity, error) {
	for _, sev := range Severities() {
		if string(sev) == s {
			return sev, nil
		}
	}
	return "", fmt.Errorf("%w: unknown signal severity %q", ErrInvalidInput, s)
}

// AtLeast returns the severities at or above s
func (s SignalSeverity) AtLeast() []SignalSeverity {
	all := Severities()
	for i, sev := range all {
		if sev == s {
			return all[i:]
		}
	}
	return nil
}

// SignalStatus tracks whether the owner has seen a signal
type SignalStatus string

const (
	SignalActive   SignalStatus = "active"
	SignalRead     SignalStatus = "read"
	SignalArchived SignalStatus = "archived"
)

// ParseSignalStatus converts a user supplied string into a SignalStatus
func ParseSignalStatus(s string) (SignalStatus, error) {
	switch st := SignalStatus(s); st {
	case SignalActive, SignalRead, SignalArchived:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown signal status %q", ErrInvalidInput, s)
	}
}

// Signal is a noteworthy event recorded for an owner, by hand or by an analysis
type Signal struct {
	ID             uuid.UUID
	Owner          string
	Type           SignalType
	Sector         string
	Title          string
	Description    string
	Severity       SignalSeverity
	Status         SignalStatus
	Source         string
	Data           map[string]interface{}
	RelatedSymbols []string
	HoldingID      *uuid.UUID
	CreatedAt      time.Time
	ExpiresAt      *time.Time
}

// Validate ensures the signal adheres to domain rules
func (s *Signal) Validate() error {
	switch {
	case s.Owner == "":
		return errors.New("signal owner cannot be empty")
	case s.Title == "" || len(s.Title) > 200:
		return errors.New("signal title must be 1-200 characters")
	case s.Description == "":
		return errors.New("signal description cannot be empty")
	case s.Source == "" || len(s.Source) > 100:
		return errors.New("signal source must be 1-100 characters")
	case len(s.Sector) > 50:
		return errors.New("signal sector is too long")
	}
	return nil
}

// SignalFilter narrows a signal listing. Nil fields do not filter.
type SignalFilter struct {
	Type        *SignalType
	Sector      *string
	Status      *SignalStatus
	MinSeverity *SignalSeverity
	Since       *time.Time
	Limit       int
}
