package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeClipName(t *testing.T) {
	long := strings.Repeat("a", 80)
	tests := map[string]string{
		"":                 "clip",
		"   ":              "clip",
		"My Clip!":         "MyClip",
		"best_moment-01":   "best_moment-01",
		"../../etc/passwd": "etcpasswd",
		"héllo wörld":      "hllowrld",
		long:               long[:50],
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := SanitizeClipName(in); got != want {
				t.Fatalf("SanitizeClipName(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestEnsure_CreatesBothDirs(t *testing.T) {
	tmp := t.TempDir()
	ws := New(filepath.Join(tmp, "a", "temp"), filepath.Join(tmp, "b", "downloads"))
	require.NoError(t, ws.Ensure())
	require.NoError(t, ws.Ensure(), "Ensure must be idempotent")

	for _, dir := range []string{ws.TempDir, ws.DownloadsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestClipPath_SameNameSameInstantIsDistinct(t *testing.T) {
	ws := New("temp", "downloads")
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	const n = 32
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names[i], _ = ws.ClipPath("highlight", now)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, name := range names {
		assert.True(t, strings.HasPrefix(name, "highlight_1792152000000_"), name)
		assert.True(t, strings.HasSuffix(name, ".mp4"), name)
		_, dup := seen[name]
		assert.False(t, dup, "duplicate clip name %s", name)
		seen[name] = struct{}{}
	}
}

func TestClipPath_JoinsDownloadsDir(t *testing.T) {
	ws := New("temp", "downloads")
	name, path := ws.ClipPath("", time.Now())
	assert.Equal(t, filepath.Join("downloads", name), path)
	assert.True(t, strings.HasPrefix(name, "clip_"))
}

func TestTempAudioPath(t *testing.T) {
	ws := New("temp", "downloads")
	now := time.Now()
	a := ws.TempAudioPath(now)
	b := ws.TempAudioPath(now)

	assert.Equal(t, "temp", filepath.Dir(a))
	assert.True(t, strings.HasSuffix(a, ".mp3"))
	assert.NotEqual(t, a, b)
}
