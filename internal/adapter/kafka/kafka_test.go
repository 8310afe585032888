package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	km := 87.3
	threat := domain.CountyThreat{
		FIPS:               "12086",
		Name:               "Miami-Dade",
		ThreatLevel:        domain.ThreatExtreme,
		NearestDistanceKm:  &km,
		NearestStormName:   "MILTON",
		NearestStormWindKt: 120,
		HasActiveThreat:    true,
		VulnerabilityScore: 0.85,
	}

	msg, err := serializeToMessage(threat, "2026-08-25T12:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, []byte("12086"), msg.Key)
	assert.Contains(t, string(msg.Value), `"current_threat_level":"extreme"`)
	assert.Contains(t, string(msg.Value), `"nearest_storm_name":"MILTON"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "threat_level", msg.Headers[0].Key)
	assert.Equal(t, []byte("extreme"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-08-25T12:00:00Z"), msg.Headers[1].Value)
}
