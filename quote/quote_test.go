package quote_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/ratecurve/quote"
)

func TestSimpleQuote_NotifiesOnChange(t *testing.T) {
	t.Parallel()

	q := quote.NewSimpleQuote(0.02)
	calls := 0
	q.Subscribe(func() { calls++ })

	assert.Equal(t, 0.0, q.SetValue(0.02))
	assert.Equal(t, 0, calls, "same value does not notify")

	assert.InDelta(t, 0.001, q.SetValue(0.021), 1e-15)
	assert.Equal(t, 1, calls)

	v, err := q.Value()
	require.NoError(t, err)
	assert.Equal(t, 0.021, v)
}

func TestSimpleQuote_Reset(t *testing.T) {
	t.Parallel()

	q := quote.NewSimpleQuote(1)
	calls := 0
	q.Subscribe(func() { calls++ })

	q.Reset()
	q.Reset()
	assert.Equal(t, 1, calls)
	assert.False(t, q.IsValid())
	_, err := q.Value()
	assert.ErrorIs(t, err, quote.ErrInvalid)
	assert.Equal(t, "<invalid>", q.String())

	q.SetValue(1)
	assert.True(t, q.IsValid())
	assert.Equal(t, 2, calls)

	assert.False(t, quote.NewSimpleQuote(math.NaN()).IsValid())
}

func TestDerivedQuote(t *testing.T) {
	t.Parallel()

	base := quote.NewSimpleQuote(2.5)
	d := quote.NewDerivedQuote(base, quote.PercentToDecimal)
	calls := 0
	d.Subscribe(func() { calls++ })

	v, err := d.Value()
	require.NoError(t, err)
	assert.InDelta(t, 0.025, v, 1e-15)

	base.SetValue(3)
	assert.Equal(t, 1, calls)
	v, err = d.Value()
	require.NoError(t, err)
	assert.InDelta(t, 0.03, v, 1e-15)

	base.Reset()
	assert.False(t, d.IsValid())
	_, err = d.Value()
	assert.ErrorIs(t, err, quote.ErrInvalid)
}
