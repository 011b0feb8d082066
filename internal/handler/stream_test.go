package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/hls"
)

func newStream(t *testing.T) *StreamHandler {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "dune-2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, hls.PlaylistName),
		[]byte("#EXTM3U\n#EXTINF:10.0,\nmaster0.ts\n#EXT-X-ENDLIST\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "master0.ts"), []byte("0123456789"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-playlist"), 0o755))
	return NewStreamHandler(hls.NewLibrary(root), "/api/stream")
}

func TestStreamPlaylist(t *testing.T) {
	h := newStream(t)
	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/stream?id=dune-2", "")
	require.NoError(t, h.Playlist(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "#EXTM3U\n#EXTINF:10.0,\n/api/stream/segment?id=dune-2&file=master0.ts\n#EXT-X-ENDLIST\n", rec.Body.String())
}

func TestStreamPlaylistErrors(t *testing.T) {
	h := newStream(t)
	cases := []struct {
		target string
		code   int
		body   string
	}{
		{"/api/stream", http.StatusBadRequest, "missing movie id"},
		{"/api/stream?id=..", http.StatusBadRequest, "invalid movie id"},
		{"/api/stream?id=unknown", http.StatusNotFound, "playlist not found"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			c, rec := newRequest(newEcho(), http.MethodGet, tc.target, "")
			require.NoError(t, h.Playlist(c))
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestStreamSegment(t *testing.T) {
	h := newStream(t)
	c, rec := newRequest(newEcho(), http.MethodGet, "/api/stream/segment?id=dune-2&file=master0.ts", "")
	require.NoError(t, h.Segment(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp2t", rec.Header().Get("Content-Type"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "0123456789", rec.Body.String())
}

func TestStreamSegmentErrors(t *testing.T) {
	h := newStream(t)
	cases := []struct {
		target string
		code   int
		body   string
	}{
		{"/api/stream/segment?id=dune-2", http.StatusBadRequest, "missing movie id or file name"},
		{"/api/stream/segment?id=dune-2&file=poster.jpg", http.StatusBadRequest, "only .ts files are served"},
		{"/api/stream/segment?id=dune-2&file=..%2Fsecret.ts", http.StatusBadRequest, "invalid movie id or file name"},
		{"/api/stream/segment?id=dune-2&file=master9.ts", http.StatusNotFound, "segment not found: master9.ts"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			c, rec := newRequest(newEcho(), http.MethodGet, tc.target, "")
			require.NoError(t, h.Segment(c))
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestStreamTitles(t *testing.T) {
	h := newStream(t)
	c, rec := newRequest(newEcho(), http.MethodGet, "/api/stream/titles", "")
	require.NoError(t, h.Titles(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"titles":["dune-2"]}`, rec.Body.String())
}
