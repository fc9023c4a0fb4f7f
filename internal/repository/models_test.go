package repository

import (
	"testing"

	"github.com/auxroom/syncd/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPlayerRecordValidate(t *testing.T) {
	for state := int(domain.StateStopped); state <= int(domain.StateDisposed); state++ {
		assert.NoError(t, PlayerRecord{State: state}.Validate())
	}

	assert.Error(t, PlayerRecord{State: -1}.Validate())
	assert.Error(t, PlayerRecord{State: 9}.Validate(), "a state outside the enum must be rejected")
}

func TestPlayerRecordSnapshot_ClampsSlider(t *testing.T) {
	record := PlayerRecord{State: int(domain.StatePlaying), SliderPosition: 1.7}

	snapshot := record.Snapshot()

	assert.Equal(t, domain.StatePlaying, snapshot.State)
	assert.Equal(t, 1.0, snapshot.SliderPosition)
}
