package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "first", Value: "1", Path: "/"})
		http.Redirect(w, r, "/step2", http.StatusFound)
	})
	mux.HandleFunc("/step2", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "foo", Value: "bar", Path: "/"})
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "done")
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "method=%s\ncontent-type=%s\nreferer=%s\ncookie=%s\nbody=%s",
			r.Method, r.Header.Get("Content-Type"), r.Header.Get("Referer"), r.Header.Get("Cookie"), body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNetTransportFollowsRedirects(t *testing.T) {
	server := newRedirectServer(t)

	b := NewBuilder().SetFollow(true)
	resp, err := b.Get(context.Background(), server.URL+"/start", nil)
	require.NoError(t, err)
	require.NoError(t, resp.TransportError())

	blocks := resp.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, 302, blocks[0].ResponseCode)
	assert.Equal(t, 302, blocks[1].ResponseCode)
	assert.Equal(t, 200, blocks[2].ResponseCode)

	assert.Equal(t, 200, resp.HTTPCode())
	assert.Equal(t, server.URL+"/final", resp.EffectiveURL())

	body, err := resp.Body()
	require.NoError(t, err)
	assert.Equal(t, "done", body)

	foo, err := resp.Cookie("foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", foo)

	first, err := resp.CookieAt(0, "first")
	require.NoError(t, err)
	assert.Equal(t, "1", first)

	loc, err := resp.HeaderAt(0, "Location")
	require.NoError(t, err)
	assert.Equal(t, "/step2", loc)

	assert.Greater(t, int64(resp.TotalTime()), int64(0))
	assert.False(t, resp.Timing().StartTime.IsZero())
}

func TestNetTransportWithoutFollow(t *testing.T) {
	server := newRedirectServer(t)

	resp, err := NewBuilder().Get(context.Background(), server.URL+"/start", nil)
	require.NoError(t, err)
	require.NoError(t, resp.TransportError())

	require.Len(t, resp.Blocks(), 1)
	assert.Equal(t, 302, resp.HTTPCode())
	assert.True(t, resp.IsRedirect())

	loc, err := resp.Header("Location")
	require.NoError(t, err)
	assert.Equal(t, "/step2", loc)
}

func TestNetTransportMaxRedirects(t *testing.T) {
	server := newRedirectServer(t)

	resp, err := NewBuilder().SetFollow(true).SetMaxRedirects(1).Get(context.Background(), server.URL+"/start", nil)
	require.NoError(t, err, "transport failures are reported on the response")

	terr := resp.TransportError()
	require.Error(t, terr)
	assert.Contains(t, terr.Error(), "redirects")

	var transportErr *TransportError
	assert.True(t, errors.As(terr, &transportErr))
	assert.Len(t, resp.Blocks(), 2)
}

func TestNetTransportRequestShaping(t *testing.T) {
	server := newRedirectServer(t)

	b := NewBuilder().SetReferer("https://referer.example.com/")
	resp, err := b.Post(context.Background(), server.URL+"/echo", nil, map[string]string{"a": "1", "b": "x y"}, EncodingQuery)
	require.NoError(t, err)

	body, err := resp.Body()
	require.NoError(t, err)
	assert.Contains(t, body, "method=POST")
	assert.Contains(t, body, "content-type=application/x-www-form-urlencoded")
	assert.Contains(t, body, "referer=https://referer.example.com/")
	assert.Contains(t, body, "body=a=1&b=x+y")

	resp, err = b.Put(context.Background(), server.URL+"/echo", "Content-Type: text/csv", "a,b", EncodingRaw)
	require.NoError(t, err)
	body, _ = resp.Body()
	assert.Contains(t, body, "content-type=text/csv")
	assert.Contains(t, body, "body=a,b")

	resp, err = b.Patch(context.Background(), server.URL+"/echo", nil, map[string]interface{}{"ok": true}, EncodingJSON)
	require.NoError(t, err)
	body, _ = resp.Body()
	assert.Contains(t, body, "content-type=application/json")
	assert.Contains(t, body, `body={"ok":true}`)
}

func TestNetTransportHead(t *testing.T) {
	server := newRedirectServer(t)

	resp, err := NewBuilder().Head(context.Background(), server.URL+"/final", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.HTTPCode())

	_, err = resp.Body()
	assert.True(t, errors.Is(err, ErrConfiguration))

	ct, err := resp.Header("Content-Type")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ct)
}

func TestNetTransportCookieJarRoundTrip(t *testing.T) {
	server := newRedirectServer(t)
	jarPath := filepath.Join(t.TempDir(), "cookies.txt")

	resp, err := NewBuilder().SetFollow(true).SetCookieJar(jarPath).Get(context.Background(), server.URL+"/start", nil)
	require.NoError(t, err)
	require.NoError(t, resp.TransportError())

	store := NewCookieFile()
	require.NoError(t, store.Load(jarPath))
	names := make([]string, 0)
	for _, e := range store.Entries() {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"first", "foo"}, names)

	resp, err = NewBuilder().SetCookieFile(jarPath).Get(context.Background(), server.URL+"/echo", nil)
	require.NoError(t, err)
	body, err := resp.Body()
	require.NoError(t, err)
	assert.Contains(t, body, "first=1")
	assert.Contains(t, body, "foo=bar")
}

func TestNetTransportCookieJarSavedOnRedirectLimit(t *testing.T) {
	server := newRedirectServer(t)
	jarPath := filepath.Join(t.TempDir(), "cookies.txt")

	resp, err := NewBuilder().
		SetFollow(true).
		SetMaxRedirects(1).
		SetCookieJar(jarPath).
		Get(context.Background(), server.URL+"/start", nil)
	require.NoError(t, err)
	require.Error(t, resp.TransportError())

	store := NewCookieFile()
	require.NoError(t, store.Load(jarPath))
	entries := store.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Name)
	assert.Equal(t, "1", entries[0].Value)
}

func TestNetTransportMissingCookieFileIgnored(t *testing.T) {
	server := newRedirectServer(t)
	missing := filepath.Join(t.TempDir(), "absent.txt")

	resp, err := NewBuilder().SetCookieFile(missing).Get(context.Background(), server.URL+"/echo", nil)
	require.NoError(t, err)
	assert.NoError(t, resp.TransportError())
}

func TestNetTransportUnsupportedProxy(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.SetProxy("socks4://proxy.example.com:1080"))

	resp, err := b.Get(context.Background(), "http://service.example.com/", nil)
	require.NoError(t, err)

	terr := resp.TransportError()
	require.Error(t, terr)
	assert.True(t, strings.Contains(terr.Error(), "not supported"))
	assert.Equal(t, 0, resp.HTTPCode())
}

func TestNetTransportConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	resp, err := NewBuilder().Get(context.Background(), url, nil)
	require.NoError(t, err)
	assert.Error(t, resp.TransportError())
	assert.Empty(t, resp.Blocks())
	assert.Equal(t, url, resp.EffectiveURL())
}
