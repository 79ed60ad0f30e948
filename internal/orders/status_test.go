package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectOf(t *testing.T) {
	assert.Equal(t, EffectFinalize, EffectOf(StatusPaid))

	for _, s := range []Status{StatusCancelled, StatusCanceled, StatusRefused,
		StatusRefunded, StatusFailed, StatusError, StatusDeclined} {
		assert.Equal(t, EffectRelease, EffectOf(s), "status %s", s)
	}

	for _, s := range []Status{StatusCreated, StatusStockReserved, StatusCompleted} {
		assert.Equal(t, EffectNone, EffectOf(s), "status %s", s)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(StatusPaid))
	assert.False(t, Known(Status("SHIPPED_TO_MARS")))
}
