package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ffmpegStub stands in for ffmpeg on a raw RGB24 pipe. Reading "-i -" it
// copies stdin to the last argument; reading "-i <file>" it copies the file to
// stdout. `-encoders` lists ffv1 so codec checks pass.
const ffmpegStub = `#!/bin/sh
src=""
prev=""
last=""
for arg in "$@"; do
	if [ "$prev" = "-i" ]; then src="$arg"; fi
	if [ "$arg" = "-encoders" ]; then
		echo " V....D ffv1                 FFmpeg video codec #1"
		exit 0
	fi
	prev="$arg"
	last="$arg"
done
case "$src" in
	"") exit 0 ;;
	-) exec cat > "$last" ;;
	*) exec cat "$src" ;;
esac
`

// failingStub drains nothing, reports msg on stderr and exits 1.
const failingStub = "#!/bin/sh\necho %q >&2\nexit 1\n"

// StreamJSON renders ffprobe output describing one video stream.
func StreamJSON(width, height, fps, frames int) string {
	return fmt.Sprintf(`{"streams":[{"index":0,"codec_name":"ffv1","codec_type":"video","width":%d,"height":%d,"r_frame_rate":"%d/1","nb_frames":"%d"}],"format":{"format_name":"matroska,webm"}}`,
		width, height, fps, frames)
}

// StubFFmpeg writes pass-through ffmpeg and ffprobe stand-ins into dir and
// returns their paths. The ffprobe stub prints streams regardless of input.
func StubFFmpeg(t testing.TB, dir, streams string) (ffmpeg, ffprobe string) {
	t.Helper()
	ffmpeg = writeStub(t, dir, "ffmpeg", ffmpegStub)
	ffprobe = writeStub(t, dir, "ffprobe", "#!/bin/sh\ncat <<'EOF'\n"+streams+"\nEOF\n")
	return ffmpeg, ffprobe
}

// FailingBinary writes an executable named name that prints msg on stderr
// and exits 1.
func FailingBinary(t testing.TB, dir, name, msg string) string {
	t.Helper()
	return writeStub(t, dir, name, fmt.Sprintf(failingStub, msg))
}

func writeStub(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}
