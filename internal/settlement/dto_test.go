package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlement_ToResponse_TimestampsRenderedInUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	created := time.Date(2026, 3, 1, 5, 30, 0, 0, ist)
	confirmed := created.Add(time.Hour)

	s := &Settlement{
		ID:          1,
		GroupID:     1,
		FromUserID:  2,
		ToUserID:    1,
		Amount:      600,
		Status:      StatusConfirmed,
		CreatedAt:   created,
		ConfirmedAt: &confirmed,
	}

	resp := s.ToResponse()
	assert.Equal(t, "2026-03-01T00:00:00Z", resp.CreatedAt)
	require.NotNil(t, resp.ConfirmedAt)
	assert.Equal(t, "2026-03-01T01:00:00Z", *resp.ConfirmedAt)
}
