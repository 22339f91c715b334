package cron_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedwatch/fedwatch/pkg/cron"
)

func TestParse(t *testing.T) {
	t.Parallel()

	_, err := cron.Parse("0 6 * * *")
	require.NoError(t, err)

	_, err = cron.Parse("")
	require.ErrorIs(t, err, cron.ErrInvalidCronExpression)

	_, err = cron.Parse("not a cron expr")
	require.ErrorIs(t, err, cron.ErrInvalidCronExpression)
}

func TestNext(t *testing.T) {
	t.Parallel()

	s, err := cron.Parse("0 6 * * *")
	require.NoError(t, err)

	from := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	next := s.Next(from, "UTC")
	assert.Equal(t, time.Date(2024, time.March, 11, 6, 0, 0, 0, time.UTC), next)

	// Unknown timezone falls back to UTC.
	fallback := s.Next(from, "Nowhere/Invalid")
	assert.Equal(t, next, fallback)

	var zero cron.Schedule
	assert.True(t, zero.Next(from, "UTC").IsZero())
}
