package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	occurred := time.Date(2024, 6, 15, 11, 57, 0, 0, time.UTC)
	ingested := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	event := domain.Event{
		ID:         "seismic-deadbeef01234567",
		Hazard:     domain.HazardSeismic,
		OccurredAt: occurred,
		Lat:        26.15,
		Lon:        91.77,
		Magnitude:  4.8,
		DepthKm:    10,
		Region:     "Assam",
		Source:     "usgs",
		IngestedAt: ingested,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("seismic-deadbeef01234567"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "seismic", headers["hazard"])
	assert.Equal(t, "2024-06-15T12:00:00Z", headers["ingested_at"])

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}
