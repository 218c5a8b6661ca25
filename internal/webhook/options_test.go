package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	opts, err := NewOptions(TCP("0.0.0.0:8443"), "https://example.com/hook/bot")
	require.NoError(t, err)
	assert.Equal(t, "/hook/bot", opts.Path())
	assert.Equal(t, "tcp:0.0.0.0:8443", opts.Location.String())
	assert.False(t, opts.Location.IsUnix())

	opts, err = NewOptions(Unix("/run/bot.sock"), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "/", opts.Path())
	assert.True(t, opts.Location.IsUnix())
}

func TestNewOptions_RejectsRelativeURL(t *testing.T) {
	_, err := NewOptions(TCP(":8443"), "/bot")
	assert.Error(t, err)

	_, err = NewOptions(TCP(":8443"), "://bad")
	assert.Error(t, err)
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, int64(DefaultMaxBodySize), opts.MaxBodySize)
	assert.Equal(t, DefaultShutdownTimeout, opts.ShutdownTimeout)

	opts = Options{MaxBodySize: 10}.withDefaults()
	assert.Equal(t, int64(10), opts.MaxBodySize)
}
