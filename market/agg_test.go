package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorTracksExtrema(t *testing.T) {
	a := NewAggregator(time.Minute)
	base := time.Unix(0, 0)

	assert.Nil(t, a.OnTrade(d("100"), base))
	assert.Nil(t, a.OnTrade(d("105"), base.Add(10*time.Second)))
	assert.Nil(t, a.OnTrade(d("95"), base.Add(20*time.Second)))
	assert.Nil(t, a.OnTrade(d("102"), base.Add(30*time.Second)))

	closed := a.OnTrade(d("103"), base.Add(time.Minute))
	require.NotNil(t, closed)
	assert.True(t, closed.Open.Equal(d("100")))
	assert.True(t, closed.High.Equal(d("105")))
	assert.True(t, closed.Low.Equal(d("95")))
	assert.True(t, closed.Close.Equal(d("103")), "boundary trade closes the bar")
}

func TestAggregatorBoundaryExtendsExtrema(t *testing.T) {
	a := NewAggregator(time.Minute)
	base := time.Unix(0, 0)

	a.OnTrade(d("100"), base)
	closed := a.OnTrade(d("110"), base.Add(time.Minute))
	require.NotNil(t, closed)
	assert.True(t, closed.High.Equal(d("110")), "boundary trade above range lifts the high")

	closed = a.OnTrade(d("90"), base.Add(2*time.Minute))
	require.NotNil(t, closed)
	assert.True(t, closed.Low.Equal(d("90")), "boundary trade below range drops the low")
}

func TestAggregatorNoCloseWithinInterval(t *testing.T) {
	a := NewAggregator(time.Minute)
	base := time.Unix(0, 0)

	assert.Nil(t, a.OnTrade(d("100"), base))
	assert.Nil(t, a.OnTrade(d("101"), base.Add(59*time.Second)))
}
