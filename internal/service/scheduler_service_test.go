package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 8 * * *", spec)

	spec, err = buildDailySpec("21:00")
	require.NoError(t, err)
	assert.Equal(t, "0 0 21 * * *", spec)

	for _, bad := range []string{"", "8", "25:00", "10:61", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	_, err := s.ScheduleDaily("08:00", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("21:30", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleDaily("nope", func() {})
	assert.Error(t, err)

	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}
