package transfer_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/transfer"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	settings := entities.DefaultSettings()
	settings.NotificationsEnabled = true
	settings.NotificationTiming = entities.Window48h
	settings.DatabaseURL = "postgres://u:p@host/db"

	token, err := transfer.Encode(settings)
	assert.Nil(err)

	decoded, err := transfer.Decode(token)
	assert.Nil(err)
	assert.Equal(settings, decoded)
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	t.Parallel()

	token, err := transfer.Encode(entities.DefaultSettings())
	assert.Nil(t, err)

	decoded, err := transfer.Decode("  " + token + "\n")
	assert.Nil(t, err)
	assert.Equal(t, entities.DefaultSettings(), decoded)
}

func TestDecodeInvalidBase64(t *testing.T) {
	t.Parallel()

	_, err := transfer.Decode("not!!valid@@base64")
	assert.ErrorIs(t, err, entities.ErrInvalidBase64)
}

func TestDecodeValidBase64InvalidJSON(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	token := base64.StdEncoding.EncodeToString([]byte("definitely not json"))
	_, err := transfer.Decode(token)
	assert.ErrorIs(err, entities.ErrInvalidJSON)
	assert.NotErrorIs(err, entities.ErrInvalidBase64)

	// Valid JSON that is not an object is rejected the same way.
	token = base64.StdEncoding.EncodeToString([]byte(`["a","b"]`))
	_, err = transfer.Decode(token)
	assert.ErrorIs(err, entities.ErrInvalidJSON)
}

func TestImportMergesWithoutMutatingCurrent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	current := entities.DefaultSettings()
	current.WeatherLocation = "Warsaw, PL"

	incoming := entities.Settings{}
	incoming.SupabaseURL = "https://x.supabase.co"
	incoming.SupabaseKey = "k"
	token, err := transfer.Encode(incoming)
	assert.Nil(err)

	merged, err := transfer.Import(current, token)
	assert.Nil(err)

	assert.Equal("Warsaw, PL", merged.WeatherLocation)
	assert.Equal("https://x.supabase.co", merged.SupabaseURL)
	assert.Empty(current.SupabaseURL)
}

func TestImportLeavesCurrentOnBadToken(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	current := entities.DefaultSettings()
	current.DatabaseURL = "postgres://keep"

	merged, err := transfer.Import(current, "%%%")
	assert.ErrorIs(err, entities.ErrInvalidBase64)
	assert.Equal(current, merged)
}
