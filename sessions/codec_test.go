package sessions_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/portal-auth/sessions"
	"github.com/stretchr/testify/require"
)

const testSecret = "session-secret"

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := sessions.NewCodec(testSecret)
	require.NoError(t, err)

	cases := map[string]sessions.Session{
		"all fields": {
			ProviderID:       "google-123",
			Email:            "ada@example.com",
			Name:             "Ada Lovelace",
			Picture:          "https://example.com/ada.png",
			ExpiresAtEpochMs: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
		},
		"empty optional fields": {
			ProviderID:       "p",
			Email:            "a@b.c",
			ExpiresAtEpochMs: 1,
		},
		"unicode and punctuation": {
			ProviderID:       "id.with.dots",
			Email:            "zoë+tag@example.co.uk",
			Name:             "Zoë \"Z\" O'Neill",
			Picture:          "https://example.com/p?x=1&y=2",
			ExpiresAtEpochMs: 1893456000123,
		},
		"already expired": {
			ProviderID:       "old",
			Email:            "old@example.com",
			ExpiresAtEpochMs: 1000,
		},
	}

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			encoded, err := codec.Encode(s)
			require.NoError(t, err)

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, s, decoded)
		})
	}
}

func TestCodec_RejectsTampering(t *testing.T) {
	codec, err := sessions.NewCodec(testSecret)
	require.NoError(t, err)

	encoded, err := codec.Encode(sessions.Session{ProviderID: "1", Email: "a@b.c", ExpiresAtEpochMs: 42})
	require.NoError(t, err)

	t.Run("modified payload", func(t *testing.T) {
		parts := strings.Split(encoded, ".")
		require.Len(t, parts, 3)
		parts[1] = parts[1][:len(parts[1])-2] + "AA"
		_, err := codec.Decode(strings.Join(parts, "."))
		require.Error(t, err)
	})

	t.Run("different secret", func(t *testing.T) {
		other, err := sessions.NewCodec("another-secret")
		require.NoError(t, err)
		_, err = other.Decode(encoded)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("not-a-session")
		require.Error(t, err)
	})
}

func TestNewCodec_RequiresSecret(t *testing.T) {
	_, err := sessions.NewCodec("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not configured")
}
