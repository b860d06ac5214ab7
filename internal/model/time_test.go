package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTimeRoundTrip(t *testing.T) {
	orig := LocalTime(time.Date(2026, 8, 29, 10, 30, 0, 0, time.Local))

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, `"2026-08-29 10:30:00"`, string(data))

	var parsed LocalTime
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, time.Time(orig).Equal(time.Time(parsed)))
	assert.Equal(t, "2026-08-29 10:30:00", parsed.String())
}

func TestLocalTimeUnmarshalEdgeCases(t *testing.T) {
	var lt LocalTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &lt))
	assert.True(t, time.Time(lt).IsZero())

	require.NoError(t, json.Unmarshal([]byte(`""`), &lt))
	assert.True(t, time.Time(lt).IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"not a time"`), &lt))
}
