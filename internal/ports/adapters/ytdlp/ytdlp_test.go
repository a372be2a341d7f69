package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	p := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755))
	return p
}

func TestFetchInfo_MapsFields(t *testing.T) {
	bin := writeScript(t, `cat <<'JSON'
{"id":"abc123","title":"Demo","duration":212.5,"thumbnail":"https://i.example/t.jpg","uploader":"Alice","channel":"AliceTV"}
JSON
`)
	info, err := New(bin).FetchInfo(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "Demo", info.Title)
	assert.Equal(t, 212.5, info.Duration)
	assert.Equal(t, "https://i.example/t.jpg", info.Thumbnail)
	assert.Equal(t, "Alice", info.Author)
	assert.Equal(t, "abc123", info.VideoID)
}

func TestFetchInfo_AuthorFallsBackToChannel(t *testing.T) {
	bin := writeScript(t, `echo '{"id":"x","title":"t","channel":"Chan","uploader_id":"@u"}'`)
	info, err := New(bin).FetchInfo(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "Chan", info.Author)

	bin = writeScript(t, `echo '{"id":"x","title":"t","uploader_id":"@u"}'`)
	info, err = New(bin).FetchInfo(context.Background(), "https://example.com/v")
	require.NoError(t, err)
	assert.Equal(t, "@u", info.Author)
}

func TestFetchInfo_PassesURLAfterSeparator(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := writeScript(t, `printf '%s\n' "$@" > "`+argsFile+`"
echo '{}'
`)
	_, err := New(bin).FetchInfo(context.Background(), "--exec=rm -rf /")
	require.NoError(t, err)

	b, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.GreaterOrEqual(t, len(args), 2)
	assert.Equal(t, "--", args[len(args)-2])
	assert.Equal(t, "--exec=rm -rf /", args[len(args)-1])
	assert.Contains(t, args, "--dump-json")
}

func TestFetchInfo_NonZeroExit(t *testing.T) {
	bin := writeScript(t, `echo "ERROR: Unsupported URL" >&2; exit 1`)
	_, err := New(bin).FetchInfo(context.Background(), "https://example.com/v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported URL")
}

func TestFetchInfo_MalformedOutput(t *testing.T) {
	bin := writeScript(t, `echo 'not json'`)
	_, err := New(bin).FetchInfo(context.Background(), "https://example.com/v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yt-dlp metadata")
}

func TestExtractAudio_WritesToTemplate(t *testing.T) {
	bin := writeScript(t, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
out=$(printf '%s' "$out" | sed 's/%(ext)s/mp3/')
printf 'ID3' > "$out"
`)
	out := filepath.Join(t.TempDir(), "audio_1_abc.mp3")
	require.NoError(t, New(bin).ExtractAudio(context.Background(), "https://example.com/v", out))
	assert.FileExists(t, out)
}

func TestExtractAudio_Failure(t *testing.T) {
	bin := writeScript(t, `echo "ERROR: HTTP Error 403" >&2; exit 1`)
	out := filepath.Join(t.TempDir(), "a.mp3")
	err := New(bin).ExtractAudio(context.Background(), "https://example.com/v", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP Error 403")
}

func TestExtractAudio_RejectsNonMP3Path(t *testing.T) {
	err := New("yt-dlp").ExtractAudio(context.Background(), "https://example.com/v", "out.wav")
	require.Error(t, err)
}
