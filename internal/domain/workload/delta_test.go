package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danghamo/workload/internal/domain/shared"
)

func validDelta() Delta {
	return Delta{
		Username:        "jane.smith",
		FirstName:       "Jane",
		LastName:        "Smith",
		IsActive:        true,
		TrainingDate:    "2026-02-15",
		DurationMinutes: 60,
		Action:          ActionAdd,
	}
}

func TestDelta_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Delta)
		wantCode int
	}{
		{
			name:   "valid delta",
			mutate: func(d *Delta) {},
		},
		{
			name:     "missing username",
			mutate:   func(d *Delta) { d.Username = "" },
			wantCode: shared.ErrCodeMissingUsername,
		},
		{
			name:     "zero duration",
			mutate:   func(d *Delta) { d.DurationMinutes = 0 },
			wantCode: shared.ErrCodeInvalidDuration,
		},
		{
			name:     "negative duration",
			mutate:   func(d *Delta) { d.DurationMinutes = -30 },
			wantCode: shared.ErrCodeInvalidDuration,
		},
		{
			name:     "unparsable date",
			mutate:   func(d *Delta) { d.TrainingDate = "15/02/2026" },
			wantCode: shared.ErrCodeInvalidDate,
		},
		{
			name:     "unknown action",
			mutate:   func(d *Delta) { d.Action = "UPSERT" },
			wantCode: shared.ErrCodeInvalidAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDelta()
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}

			assert.Error(t, err)
			assert.Equal(t, tt.wantCode, shared.ErrorCode(err))
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestDelta_Bucket(t *testing.T) {
	d := validDelta()

	year, month, err := d.Bucket()
	assert.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 2, month)
}

func TestDelta_SignedDuration(t *testing.T) {
	d := validDelta()
	assert.Equal(t, 60, d.signedDuration())

	d.Action = ActionRemove
	assert.Equal(t, -60, d.signedDuration())
}

func TestTrainerWorkload_MetadataLastWriteWins(t *testing.T) {
	w := NewTrainerWorkload("jane.smith")

	w.apply(validDelta())
	assert.Equal(t, "Jane", w.FirstName)
	assert.True(t, w.IsActive)

	renamed := validDelta()
	renamed.FirstName = "Janet"
	renamed.IsActive = false
	w.apply(renamed)

	assert.Equal(t, "Janet", w.FirstName)
	assert.False(t, w.IsActive)
}

func TestTrainerWorkload_BucketsPersistAtZero(t *testing.T) {
	w := NewTrainerWorkload("jane.smith")

	add := validDelta()
	w.apply(add)

	remove := validDelta()
	remove.Action = ActionRemove
	w.apply(remove)

	assert.Equal(t, 0, w.Duration(2026, 2))
	assert.Contains(t, w.Years, 2026)
	assert.Contains(t, w.Years[2026].Months, 2)
}

func TestTrainerWorkload_CloneIsIndependent(t *testing.T) {
	w := NewTrainerWorkload("jane.smith")
	w.apply(validDelta())

	clone := w.Clone()
	w.apply(validDelta())

	assert.Equal(t, 60, clone.Duration(2026, 2))
	assert.Equal(t, 120, w.Duration(2026, 2))
}
