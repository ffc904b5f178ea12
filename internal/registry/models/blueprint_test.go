package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/blueprint"
	id "foundry/pkg/domain"
	dErrors "foundry/pkg/domain-errors"
)

func TestRegistered(t *testing.T) {
	blank := Entry{ID: id.NewBlueprintID()}
	assert.False(t, blank.Registered())

	stamped := Entry{ID: id.NewBlueprintID(), RegisteredAt: time.Now()}
	assert.True(t, stamped.Registered())
}

func TestCanUpdate(t *testing.T) {
	blank := Entry{ID: id.NewBlueprintID()}
	err := blank.CanUpdate()
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	stamped := Entry{ID: id.NewBlueprintID(), RegisteredAt: time.Now()}
	require.NoError(t, stamped.CanUpdate())
}

func TestApplyMutations(t *testing.T) {
	registeredAt := time.Now()
	entry := Entry{
		ID:           id.NewBlueprintID(),
		Kind:         blueprint.KindVesting,
		Fee:          500,
		Active:       true,
		RegisteredAt: registeredAt,
	}

	entry.ApplyFee(750)
	assert.Equal(t, int64(750), entry.Fee)
	assert.True(t, entry.Active)

	entry.ApplyStatus(false)
	assert.False(t, entry.Active)
	assert.Equal(t, int64(750), entry.Fee, "deactivation keeps the fee")
	assert.Equal(t, registeredAt, entry.RegisteredAt, "deactivation keeps the registration timestamp")
}
