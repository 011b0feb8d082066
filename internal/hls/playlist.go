// Package hls serves pre-segmented HLS titles from a directory tree laid out
// as <root>/<movieId>/master.m3u8 plus its masterN.ts segments.  It does no
// transcoding; it only rewrites segment references and resolves files.
package hls

import (
    "errors"
    "net/url"
    "os"
    "path/filepath"
    "regexp"
    "sort"
    "strings"
)

// PlaylistName is the playlist file expected in every title directory.
const PlaylistName = "master.m3u8"

var (
    ErrBadName   = errors.New("invalid path element")
    ErrNotTS     = errors.New("segment must be a .ts file")
    ErrNotFound  = errors.New("not found")
    segmentRegex = regexp.MustCompile(`master\d+\.ts`)
)

// RewritePlaylist replaces every masterN.ts reference in playlist with
// <basePath>/segment?id=<movieID>&file=masterN.ts.  All other bytes are left
// untouched.  movieID is query-escaped, which is the identity for the
// [A-Za-z0-9_-] ids used on disk.
func RewritePlaylist(playlist []byte, basePath, movieID string) []byte {
    prefix := strings.TrimRight(basePath, "/") + "/segment?id=" + url.QueryEscape(movieID) + "&file="
    return segmentRegex.ReplaceAllFunc(playlist, func(m []byte) []byte {
        out := make([]byte, 0, len(prefix)+len(m))
        out = append(out, prefix...)
        return append(out, m...)
    })
}

// ValidName reports whether s is usable as a single path element below the
// video root.
func ValidName(s string) bool {
    if s == "" || s == "." || s == ".." {
        return false
    }
    return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}

// Library resolves titles and segments under Root.
type Library struct {
    Root string
}

func NewLibrary(root string) *Library { return &Library{Root: root} }

// PlaylistPath returns the master playlist path for movieID.
func (l *Library) PlaylistPath(movieID string) (string, error) {
    if !ValidName(movieID) {
        return "", ErrBadName
    }
    return filepath.Join(l.Root, movieID, PlaylistName), nil
}

// SegmentPath returns the path of a .ts segment for movieID.
func (l *Library) SegmentPath(movieID, file string) (string, error) {
    if !ValidName(movieID) || !ValidName(file) {
        return "", ErrBadName
    }
    if !strings.HasSuffix(file, ".ts") {
        return "", ErrNotTS
    }
    return filepath.Join(l.Root, movieID, file), nil
}

// ReadPlaylist reads and rewrites the playlist of movieID.  A missing
// playlist yields ErrNotFound.
func (l *Library) ReadPlaylist(movieID, basePath string) ([]byte, error) {
    p, err := l.PlaylistPath(movieID)
    if err != nil {
        return nil, err
    }
    raw, err := os.ReadFile(p)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return RewritePlaylist(raw, basePath, movieID), nil
}

// OpenSegment opens a segment for streaming along with its size.  The caller
// closes the file.
func (l *Library) OpenSegment(movieID, file string) (*os.File, int64, error) {
    p, err := l.SegmentPath(movieID, file)
    if err != nil {
        return nil, 0, err
    }
    f, err := os.Open(p)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return nil, 0, ErrNotFound
        }
        return nil, 0, err
    }
    st, err := f.Stat()
    if err != nil {
        _ = f.Close()
        return nil, 0, err
    }
    if st.IsDir() {
        _ = f.Close()
        return nil, 0, ErrNotFound
    }
    return f, st.Size(), nil
}

// Titles lists the sub-directories of Root holding a master playlist,
// sorted by name.  A missing root is an empty library.
func (l *Library) Titles() ([]string, error) {
    entries, err := os.ReadDir(l.Root)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return []string{}, nil
        }
        return nil, err
    }
    out := []string{}
    for _, e := range entries {
        if !e.IsDir() {
            continue
        }
        if st, err := os.Stat(filepath.Join(l.Root, e.Name(), PlaylistName)); err == nil && st.Mode().IsRegular() {
            out = append(out, e.Name())
        }
    }
    sort.Strings(out)
    return out, nil
}
