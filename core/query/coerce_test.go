package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/asaidimu/go-listquery/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercer_Coerce(t *testing.T) {
	tests := []struct {
		name     string
		coercer  Coercer
		raw      string
		typ      schema.FieldType
		expected any
		wantErr  bool
	}{
		{"number integer", Coercer{}, "42", schema.FieldTypeNumber, 42.0, false},
		{"number decimal", Coercer{}, " 19.99 ", schema.FieldTypeNumber, 19.99, false},
		{"number negative exponent", Coercer{}, "-1e2", schema.FieldTypeNumber, -100.0, false},
		{"number invalid", Coercer{}, "ten", schema.FieldTypeNumber, nil, true},
		{"number NaN", Coercer{}, "NaN", schema.FieldTypeNumber, nil, true},
		{"number Inf", Coercer{}, "+Inf", schema.FieldTypeNumber, nil, true},
		{"number empty", Coercer{}, "", schema.FieldTypeNumber, nil, true},

		{"boolean true", Coercer{}, "TRUE", schema.FieldTypeBoolean, true, false},
		{"boolean one", Coercer{}, "1", schema.FieldTypeBoolean, true, false},
		{"boolean false", Coercer{}, "False", schema.FieldTypeBoolean, false, false},
		{"boolean zero", Coercer{}, "0", schema.FieldTypeBoolean, false, false},
		{"boolean yes rejected", Coercer{}, "yes", schema.FieldTypeBoolean, nil, true},

		{"objectid lowercased", Coercer{}, "507F1F77BCF86CD799439011", schema.FieldTypeIdentifier, "507f1f77bcf86cd799439011", false},
		{"objectid too short", Coercer{}, "507f1f77", schema.FieldTypeIdentifier, nil, true},
		{"objectid not hex", Coercer{}, "507f1f77bcf86cd79943901z", schema.FieldTypeIdentifier, nil, true},
		{"objectid injection", Coercer{}, `{"$ne":null}`, schema.FieldTypeIdentifier, nil, true},
		{"uuid canonical", Coercer{IdentifierFormat: schema.IdentifierFormatUUID}, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", schema.FieldTypeIdentifier, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"uuid invalid", Coercer{IdentifierFormat: schema.IdentifierFormatUUID}, "not-a-uuid", schema.FieldTypeIdentifier, nil, true},
		{"uuid rejects objectid", Coercer{IdentifierFormat: schema.IdentifierFormatUUID}, "507f1f77bcf86cd799439011", schema.FieldTypeIdentifier, nil, true},
		{"unknown identifier format", Coercer{IdentifierFormat: "snowflake"}, "123", schema.FieldTypeIdentifier, nil, true},

		{"date only", Coercer{}, "2024-03-05", schema.FieldTypeDate, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"date time utc", Coercer{}, "2024-03-05T10:20:30Z", schema.FieldTypeDate, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), false},
		{"date time offset normalised", Coercer{}, "2024-03-05T12:20:30+02:00", schema.FieldTypeDate, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), false},
		{"date time fraction", Coercer{}, "2024-03-05T10:20:30.5Z", schema.FieldTypeDate, time.Date(2024, 3, 5, 10, 20, 30, 500000000, time.UTC), false},
		{"date time without zone", Coercer{}, "2024-03-05T10:20:30", schema.FieldTypeDate, nil, true},
		{"date ambiguous", Coercer{}, "03/05/2024", schema.FieldTypeDate, nil, true},
		{"date invalid month", Coercer{}, "2024-13-01", schema.FieldTypeDate, nil, true},

		{"string passthrough", Coercer{}, "  Blue Shirt ", schema.FieldTypeString, "  Blue Shirt ", false},
		{"string capped", Coercer{MaxStringLength: 3}, "héllo", schema.FieldTypeString, "hél", false},

		{"unknown type", Coercer{}, "x", schema.FieldType("geo"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.coercer.Coerce(tt.raw, tt.typ)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrCoercion))
				var ce *CoercionError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.raw, ce.Raw)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoerce_DefaultStringCap(t *testing.T) {
	long := strings.Repeat("a", MaxStringLength+10)
	got, err := Coerce(long, schema.FieldTypeString)
	require.NoError(t, err)
	assert.Len(t, got, MaxStringLength)
}
