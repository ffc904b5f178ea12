package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foundry/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
//
// Justification: This is a pure function enforcing a domain invariant
// at trust boundaries.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseAccountID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(validUUID), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	accountID := AccountID(uuid.New())
	blueprintID := BlueprintID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ AccountID = blueprintID   // compile error
	// var _ BlueprintID = accountID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(accountID), uuid.UUID(blueprintID))
}

// TestParseID_SecurityInvariants validates security-critical parsing rules.
//
// Justification: These are trust boundary invariants - parsing must reject
// attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE blueprints;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		// Edge cases
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		// Valid
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBlueprintID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types have identical
// parsing behavior: one input either passes everywhere or fails everywhere.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	inputs := []string{
		"",
		uuid.Nil.String(),
		"not-a-uuid",
		uuid.New().String(),
	}

	for _, input := range inputs {
		_, errAccount := ParseAccountID(input)
		_, errBlueprint := ParseBlueprintID(input)
		_, errInstance := ParseInstanceID(input)
		_, errToken := ParseTokenID(input)

		assert.Equal(t, errAccount == nil, errBlueprint == nil, "input %q", input)
		assert.Equal(t, errAccount == nil, errInstance == nil, "input %q", input)
		assert.Equal(t, errAccount == nil, errToken == nil, "input %q", input)
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, AccountID(uuid.Nil).IsZero())
	assert.False(t, NewAccountID().IsZero())
	assert.True(t, InstanceID{}.IsZero())
	assert.False(t, NewTokenID().IsZero())
}
