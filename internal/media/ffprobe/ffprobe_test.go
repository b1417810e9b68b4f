package ffprobe

import (
	"math"
	"testing"
)

func TestParseFrameStream(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"index": 0, "codec_name": "ffv1", "codec_type": "video", "pix_fmt": "gray",
			 "width": 64, "height": 480, "r_frame_rate": "25/1", "avg_frame_rate": "25/1", "nb_frames": "120"}
		],
		"format": {"filename": "out.mkv", "nb_streams": 1, "duration": "4.8", "size": "2048", "format_name": "matroska,webm"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	stream, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.Width != 64 || stream.Height != 480 {
		t.Fatalf("unexpected geometry %dx%d", stream.Width, stream.Height)
	}
	if stream.FrameRate() != 25 {
		t.Fatalf("unexpected frame rate %v", stream.FrameRate())
	}
	if stream.FrameCount() != 120 {
		t.Fatalf("unexpected frame count %d", stream.FrameCount())
	}
	if result.DurationSeconds() != 4.8 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if string(result.RawJSON()) != string(payload) {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestFrameRateFallsBackToAverage(t *testing.T) {
	stream := Stream{RFrameRate: "0/0", AvgFrameRate: "30000/1001"}
	if got := stream.FrameRate(); math.Abs(got-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", got)
	}
	if (Stream{}).FrameRate() != 0 {
		t.Fatal("expected zero frame rate when unreported")
	}
}

func TestFrameCountUnknown(t *testing.T) {
	if (Stream{NbFrames: "N/A"}).FrameCount() != -1 {
		t.Fatal("expected -1 for unknown frame count")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.VideoStreamCount() != 0 {
		t.Fatalf("expected no video streams, got %d", result.VideoStreamCount())
	}
	if _, ok := result.VideoStream(); ok {
		t.Fatal("expected VideoStream to report absence")
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
