package query

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/google/uuid"
)

// MaxStringLength is the default rune cap applied to string values.
const MaxStringLength = 256

const objectIDLength = 24

// Coercer converts raw parameter strings into typed values. The zero value
// uses objectid identifiers and the default string cap.
type Coercer struct {
	IdentifierFormat schema.IdentifierFormat
	MaxStringLength  int
}

// Coerce converts raw to the Go representation of t: float64 for numbers,
// bool for booleans, a canonical string for identifiers, a UTC time.Time for
// dates and a capped string for strings. Failures are *CoercionError.
func (c Coercer) Coerce(raw string, t schema.FieldType) (any, error) {
	switch t {
	case schema.FieldTypeString:
		return truncateRunes(raw, c.maxStringLength()), nil
	case schema.FieldTypeNumber:
		return coerceNumber(raw)
	case schema.FieldTypeBoolean:
		return coerceBoolean(raw)
	case schema.FieldTypeIdentifier:
		return c.coerceIdentifier(raw)
	case schema.FieldTypeDate:
		return coerceDate(raw)
	default:
		return nil, &CoercionError{Type: t, Raw: raw, Reason: "unsupported field type"}
	}
}

// Coerce converts raw using a zero-value Coercer.
func Coerce(raw string, t schema.FieldType) (any, error) {
	return Coercer{}.Coerce(raw, t)
}

func (c Coercer) maxStringLength() int {
	if c.MaxStringLength <= 0 {
		return MaxStringLength
	}
	return c.MaxStringLength
}

func coerceNumber(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &CoercionError{Type: schema.FieldTypeNumber, Raw: raw, Reason: "not a number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &CoercionError{Type: schema.FieldTypeNumber, Raw: raw, Reason: "not a finite number"}
	}
	return f, nil
}

func coerceBoolean(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, &CoercionError{Type: schema.FieldTypeBoolean, Raw: raw, Reason: "expected true, false, 1 or 0"}
}

func (c Coercer) coerceIdentifier(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	switch c.IdentifierFormat {
	case schema.IdentifierFormatUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, &CoercionError{Type: schema.FieldTypeIdentifier, Raw: raw, Reason: "not a valid uuid"}
		}
		return id.String(), nil
	case schema.IdentifierFormatObjectID, "":
		if len(s) != objectIDLength {
			return nil, &CoercionError{Type: schema.FieldTypeIdentifier, Raw: raw, Reason: "expected 24 hexadecimal characters"}
		}
		if _, err := hex.DecodeString(s); err != nil {
			return nil, &CoercionError{Type: schema.FieldTypeIdentifier, Raw: raw, Reason: "expected 24 hexadecimal characters"}
		}
		return strings.ToLower(s), nil
	default:
		return nil, &CoercionError{Type: schema.FieldTypeIdentifier, Raw: raw, Reason: "unknown identifier format " + string(c.IdentifierFormat)}
	}
}

// dateLayouts are tried in order. Date-times must carry a zone; a bare
// date is read as UTC midnight.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateOnly,
}

func coerceDate(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, &CoercionError{Type: schema.FieldTypeDate, Raw: raw, Reason: "expected an ISO-8601 date or date-time with zone"}
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
