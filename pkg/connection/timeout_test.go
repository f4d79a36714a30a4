package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutStates(t *testing.T) {
	var zero Timeout
	assert.True(t, zero.IsDefault())
	_, ok := zero.Duration()
	assert.False(t, ok)

	none := NoTimeout()
	assert.False(t, none.IsDefault())
	_, ok = none.Duration()
	assert.False(t, ok)

	five := TimeoutOf(5 * time.Second)
	d, ok := five.Duration()
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	assert.Equal(t, NoTimeout(), TimeoutOf(0))
	assert.Equal(t, NoTimeout(), TimeoutOf(-time.Second))
}

func TestTimeoutOr(t *testing.T) {
	five := TimeoutOf(5 * time.Second)

	// Default defers to the fallback, every other state wins over it.
	assert.Equal(t, five, DefaultTimeout().Or(five))
	assert.Equal(t, NoTimeout(), NoTimeout().Or(five))
	assert.Equal(t, TimeoutOf(time.Second), TimeoutOf(time.Second).Or(five))
	assert.True(t, DefaultTimeout().Or(DefaultTimeout()).IsDefault())
}

func TestParseTimeout(t *testing.T) {
	cases := map[string]Timeout{
		"":         DefaultTimeout(),
		"none":     NoTimeout(),
		"Infinite": NoTimeout(),
		"0":        NoTimeout(),
		"1500ms":   TimeoutOf(1500 * time.Millisecond),
		" 2s ":     TimeoutOf(2 * time.Second),
	}
	for in, want := range cases {
		got, err := ParseTimeout(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTimeout("soon")
	require.Error(t, err)
}

func TestTimeoutString(t *testing.T) {
	assert.Equal(t, "default", DefaultTimeout().String())
	assert.Equal(t, "none", NoTimeout().String())
	assert.Equal(t, "3s", TimeoutOf(3*time.Second).String())
}
