package console

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TIVI_DATA_DIR", t.TempDir())
	t.Setenv("TIVI_CACHE_DIR", t.TempDir())
	t.Setenv("TMDB_API_KEY", "tmdb0key")
	t.Setenv("TRAKT_CLIENT_ID", "trakt0id")
	t.Setenv("TRAKT_CLIENT_SECRET", "trakt0secret")
}

func execute(t *testing.T, opener func(context.Context, string) error, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := CLI{Stdout: &out, Opener: opener}
	parser, err := Parser(&cli)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	defer cli.shutdown()
	err = kctx.Run(&cli)
	return out.String(), err
}

func TestPrefs_SetGetListRm(t *testing.T) {
	setEnv(t)

	_, err := execute(t, nil, "prefs", "set", "theme", "dark")
	require.NoError(t, err)
	_, err = execute(t, nil, "prefs", "set", "region", "GB")
	require.NoError(t, err)

	out, err := execute(t, nil, "prefs", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = execute(t, nil, "prefs", "list")
	require.NoError(t, err)
	assert.Equal(t, "region=GB\ntheme=dark\n", out)

	_, err = execute(t, nil, "prefs", "rm", "theme")
	require.NoError(t, err)
	_, err = execute(t, nil, "prefs", "get", "theme")
	assert.Error(t, err)
}

func TestTraktLoginURL(t *testing.T) {
	setEnv(t)

	out, err := execute(t, nil, "trakt-login-url", "--state", "s1")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "trakt.tv", u.Host)
	assert.Equal(t, "trakt0id", u.Query().Get("client_id"))
	assert.Equal(t, "s1", u.Query().Get("state"))
}

func TestNavigate_DeepLinkAndWebLink(t *testing.T) {
	setEnv(t)

	out, err := execute(t, nil, "navigate", "tivi://app/shows/42")
	require.NoError(t, err)
	assert.Equal(t, "show-details 42\n", out)

	var opened string
	_, err = execute(t, func(_ context.Context, target string) error {
		opened = target
		return nil
	}, "navigate", "https://trakt.tv/shows/the-expanse")
	require.NoError(t, err)
	assert.Equal(t, "https://trakt.tv/shows/the-expanse", opened)
}

func TestUpdateShow_RejectsBadID(t *testing.T) {
	setEnv(t)

	_, err := execute(t, nil, "update-show", "0")
	assert.Error(t, err)
}
