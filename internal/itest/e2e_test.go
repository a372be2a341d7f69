//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itzleon156-collab/So-clip/internal/api"
	"github.com/itzleon156-collab/So-clip/internal/ports/adapters/ffmpeg"
	"github.com/itzleon156-collab/So-clip/internal/ports/adapters/ytdlp"
	"github.com/itzleon156-collab/So-clip/internal/usecase"
	"github.com/itzleon156-collab/So-clip/internal/workspace"
)

// makeFixture renders a short test-pattern video with a tone. moov is placed
// up front so the file can be decoded from a pipe.
func makeFixture(t *testing.T, dir string) string {
	t.Helper()
	in := filepath.Join(dir, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", "testsrc=size=640x360:rate=25:duration=12",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=12",
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return in
}

// fakeDownloader stands in for yt-dlp: it streams the fixture for clip
// requests and prints canned metadata for --dump-json.
func fakeDownloader(t *testing.T, dir, fixture string) string {
	t.Helper()
	p := filepath.Join(dir, "yt-dlp")
	script := `#!/bin/sh
for a in "$@"; do
  if [ "$a" = "--dump-json" ]; then
    echo '{"id":"fixture","title":"Fixture","duration":12,"thumbnail":"","channel":"itest"}'
    exit 0
  fi
done
cat "` + fixture + `"
`
	if err := os.WriteFile(p, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}
	return p
}

func TestE2E_CreateClipThroughHTTP(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	tmp := t.TempDir()
	fixture := makeFixture(t, tmp)
	dl := fakeDownloader(t, tmp, fixture)

	ws := workspace.New(filepath.Join(tmp, "temp"), filepath.Join(tmp, "downloads"))
	if err := ws.Ensure(); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	uc := usecase.New(usecase.Deps{
		Source:    ytdlp.New(dl),
		Clipper:   ffmpeg.New(dl, "ffmpeg"),
		Workspace: ws,
	})
	srv := httptest.NewServer(api.NewServer(uc, api.Options{
		DownloadsDir:   ws.DownloadsDir,
		BodyLimitBytes: 50 << 20,
	}).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	infoBody := postJSON(ctx, t, srv.URL+"/api/video-info", `{"url":"https://example.com/watch?v=fixture"}`)
	if infoBody["title"] != "Fixture" || infoBody["author"] != "itest" {
		t.Fatalf("unexpected video info: %v", infoBody)
	}

	clipBody := postJSON(ctx, t, srv.URL+"/api/create-clip",
		`{"url":"https://example.com/watch?v=fixture","startTime":2,"duration":3,"clipName":"e2e clip"}`)
	downloadURL, _ := clipBody["downloadUrl"].(string)
	filename, _ := clipBody["filename"].(string)
	if !strings.HasPrefix(filename, "e2eclip_") || downloadURL != "/downloads/"+filename {
		t.Fatalf("unexpected clip response: %v", clipBody)
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+downloadURL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download clip: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d", resp.StatusCode)
	}
	local := filepath.Join(tmp, "downloaded.mp4")
	f, err := os.Create(local)
	if err != nil {
		t.Fatal(err)
	}
	n, err := io.Copy(f, resp.Body)
	_ = f.Close()
	if err != nil {
		t.Fatalf("copy clip: %v", err)
	}
	if size, _ := clipBody["size"].(float64); int64(size) != n {
		t.Fatalf("reported size %v, downloaded %d bytes", clipBody["size"], n)
	}

	got, err := probeDurationSeconds(local)
	if err != nil {
		t.Fatalf("probe clip: %v", err)
	}
	if math.Abs(got-3) > 0.5 {
		t.Fatalf("clip duration %.2fs, want ~3s", got)
	}

	cs, err := codecs(local)
	if err != nil {
		t.Fatalf("probe codecs: %v", err)
	}
	if cs["video"] != "h264" || cs["audio"] != "aac" {
		t.Fatalf("unexpected codecs: %v", cs)
	}
}

func postJSON(ctx context.Context, t *testing.T, url, body string) map[string]any {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK || out["success"] != true {
		t.Fatalf("POST %s: status %d body %v", url, resp.StatusCode, out)
	}
	return out
}
