package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/vesting"
	id "foundry/pkg/domain"
)

func linearSchedule(total int64, cliff, duration time.Duration, start time.Time) Schedule {
	return Schedule{
		InstanceID:  id.NewInstanceID(),
		Beneficiary: id.NewAccountID(),
		Total:       total,
		Start:       start,
		Cliff:       cliff,
		Duration:    duration,
	}
}

// TestVestedAmount pins the release curve: nothing at or before the cliff
// point, linear whole-second release after it, full total once the duration
// has elapsed.
func TestVestedAmount(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := linearSchedule(1000, 100*time.Second, 1000*time.Second, start)

	tests := []struct {
		name string
		at   time.Time
		want int64
	}{
		{"before start", start.Add(-time.Second), 0},
		{"at start", start, 0},
		{"cliff boundary is exclusive", start.Add(100 * time.Second), 0},
		{"one second past the cliff", start.Add(101 * time.Second), 1},
		{"midway", start.Add(600 * time.Second), 500},
		{"exactly at the end", start.Add(1100 * time.Second), 1000},
		{"long after the end", start.Add(1200 * time.Second), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schedule.VestedAmount(tt.at))
		})
	}

	t.Run("sub-second progress truncates to whole seconds", func(t *testing.T) {
		at := start.Add(101*time.Second + 900*time.Millisecond)
		assert.Equal(t, int64(1), schedule.VestedAmount(at))
	})

	t.Run("truncated remainders accrue later", func(t *testing.T) {
		s := linearSchedule(1000, 0, 3*time.Second, start)
		assert.Equal(t, int64(333), s.VestedAmount(start.Add(1*time.Second)))
		assert.Equal(t, int64(666), s.VestedAmount(start.Add(2*time.Second)))
		assert.Equal(t, int64(1000), s.VestedAmount(start.Add(3*time.Second)))
	})

	t.Run("huge totals do not overflow the multiplication", func(t *testing.T) {
		s := linearSchedule(1<<62, 0, 1_000_000*time.Second, start)
		at := start.Add(999_999 * time.Second)
		want := int64(1<<62) / 1_000_000 * 999_999 // sanity bound, not exact
		got := s.VestedAmount(at)
		assert.Greater(t, got, want-1_000_000)
		assert.LessOrEqual(t, got, int64(1<<62))
	})
}

// TestClaimableMonotonic walks time forward and checks claimable never
// decreases until it plateaus at total.
func TestClaimableMonotonic(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := linearSchedule(997, 50*time.Second, 730*time.Second, start)

	previous := int64(0)
	for offset := time.Duration(0); offset <= 900*time.Second; offset += 7 * time.Second {
		claimable := schedule.ClaimableAmount(start.Add(offset))
		require.GreaterOrEqual(t, claimable, previous, "claimable must not decrease at offset %s", offset)
		previous = claimable
	}
	assert.Equal(t, int64(997), previous)
}

func TestClaimableAfterClaims(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := linearSchedule(1000, 100*time.Second, 1000*time.Second, start)

	mid := start.Add(600 * time.Second)
	require.Equal(t, int64(500), schedule.ClaimableAmount(mid))

	schedule.ApplyClaim(500, mid)
	assert.Equal(t, int64(0), schedule.ClaimableAmount(mid))
	assert.Equal(t, int64(500), schedule.ClaimableAmount(start.Add(1200*time.Second)))

	schedule.RevertClaim(500, time.Time{})
	assert.Equal(t, int64(500), schedule.ClaimableAmount(mid))
	assert.True(t, schedule.LastClaim.IsZero())
}

func TestValidateSeed(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := linearSchedule(100, 10*time.Second, 60*time.Second, now)

	tests := []struct {
		name    string
		mutate  func(*Schedule)
		wantErr string
	}{
		{"valid", func(s *Schedule) {}, ""},
		{"start equal to now is allowed", func(s *Schedule) { s.Start = now }, ""},
		{"zero cliff is allowed", func(s *Schedule) { s.Cliff = 0 }, ""},
		{"cliff equal to duration is allowed", func(s *Schedule) { s.Cliff = s.Duration }, ""},
		{"missing beneficiary", func(s *Schedule) { s.Beneficiary = id.AccountID{} }, "beneficiary account is required"},
		{"zero total", func(s *Schedule) { s.Total = 0 }, "total amount must be positive"},
		{"negative total", func(s *Schedule) { s.Total = -5 }, "total amount must be positive"},
		{"sub-second duration", func(s *Schedule) { s.Duration = 500 * time.Millisecond }, "duration must be at least one second"},
		{"start in the past", func(s *Schedule) { s.Start = now.Add(-time.Second) }, "start time must not be in the past"},
		{"cliff beyond duration", func(s *Schedule) { s.Cliff = s.Duration + time.Second }, "cliff must not exceed the duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.ValidateSeed(now)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigLatches(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("uninitialized cannot start", func(t *testing.T) {
		cfg := Config{State: StateUninitialized}
		assert.ErrorIs(t, cfg.CanStartVesting(), vesting.ErrNotInitialized)
	})

	t.Run("initialized starts once", func(t *testing.T) {
		cfg := Config{State: StateInitialized}
		require.NoError(t, cfg.CanStartVesting())

		cfg.ApplyStart(now)
		assert.Equal(t, StateVestingStarted, cfg.State)
		assert.Equal(t, now, cfg.StartedAt)
		assert.ErrorIs(t, cfg.CanStartVesting(), vesting.ErrVestingAlreadyStarted)
	})
}

func TestZeroTotalIsNotABeneficiary(t *testing.T) {
	s := Schedule{Beneficiary: id.NewAccountID(), Total: 0}
	assert.False(t, s.IsBeneficiary())
	assert.True(t, (&Schedule{Total: 1}).IsBeneficiary())
}
