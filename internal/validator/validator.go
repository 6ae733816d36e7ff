package validator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/septivank/stockflow-worker/internal/inventory"
	"github.com/septivank/stockflow-worker/tools/timeparser"
)

// Record kinds accepted from operators
const (
	KindIngress = "ingress"
	KindUsage   = "usage"
)

// ValidationResult holds validation outcome
type ValidationResult struct {
	IsValid bool
	Reason  string
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{IsValid: false, Reason: fmt.Sprintf(format, args...)}
}

// RecordInput is a record as submitted by an operator
type RecordInput struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Timestamp   string `json:"timestamp"`
	ProductName string `json:"product_name"`
	Kind        string `json:"kind"`
	Quantity    string `json:"quantity"`
}

// Validator handles record validation with configurable parameters
type Validator struct {
	futureTolerance time.Duration
}

// NewValidator creates a new validator. Records timestamped more than
// futureToleranceMinutes after receipt are rejected; 0 disables the check.
func NewValidator(futureToleranceMinutes int) *Validator {
	return &Validator{
		futureTolerance: time.Duration(futureToleranceMinutes) * time.Minute,
	}
}

// ValidateRecord validates a record input and converts it to a Record.
// The record ID is left as given; callers assign one when empty.
func (v *Validator) ValidateRecord(in RecordInput, receivedAt time.Time) (inventory.Record, ValidationResult) {
	productName := strings.TrimSpace(in.ProductName)
	if productName == "" {
		return inventory.Record{}, invalid("empty product name")
	}

	qty, err := ParseQuantity(in.Quantity)
	if err != nil {
		return inventory.Record{}, invalid("invalid quantity: %v", err)
	}
	if isNonFinite(qty) {
		return inventory.Record{}, invalid("quantity must be a finite number")
	}
	if qty <= 0 {
		return inventory.Record{}, invalid("quantity must be greater than zero")
	}

	record := inventory.Record{
		ID:          in.ID,
		ProductName: productName,
	}

	switch in.Kind {
	case KindIngress:
		record.IngressQty = qty
	case KindUsage:
		record.UsageQty = qty
	default:
		return inventory.Record{}, invalid("unknown record kind '%s'", in.Kind)
	}

	record.Timestamp = receivedAt
	if in.Timestamp != "" {
		ts, err := timeparser.ParseRecordTimestamp(in.Timestamp)
		if err != nil {
			return inventory.Record{}, invalid("invalid timestamp format: %v", err)
		}
		record.Timestamp = ts
	}

	if timeparser.IsTooFarAhead(record.Timestamp, receivedAt, v.futureTolerance) {
		return inventory.Record{}, invalid("timestamp is in the future (tolerance %s)", v.futureTolerance)
	}

	record.Date = timeparser.DateOf(record.Timestamp)
	if in.Date != "" {
		date, err := timeparser.ParseRecordDate(in.Date)
		if err != nil {
			return inventory.Record{}, invalid("invalid date format: %v", err)
		}
		record.Date = date
	}

	return record, ValidationResult{IsValid: true}
}

// ValidateSettings checks operator-provided product settings
func (v *Validator) ValidateSettings(product string, settings inventory.ProductSettings) ValidationResult {
	if strings.TrimSpace(product) == "" {
		return invalid("empty product name")
	}
	if isNonFinite(settings.TolerancePercent) || (settings.TargetAverage != nil && isNonFinite(*settings.TargetAverage)) {
		return invalid("settings must be finite numbers")
	}
	if settings.TolerancePercent <= 0 {
		return invalid("tolerance percent must be greater than zero")
	}
	if settings.TargetAverage != nil && *settings.TargetAverage < 0 {
		return invalid("target average must not be negative")
	}
	return ValidationResult{IsValid: true}
}

// ParseQuantity parses a quantity entered either as a plain decimal
// ("1234.5") or with Spanish separators ("1.234,5")
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// isNonFinite reports NaN and ±Inf, which strconv.ParseFloat accepts
func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
