package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// HasEncoder reports whether the ffmpeg binary lists the named video encoder.
func HasEncoder(ctx context.Context, ffmpegBinary, encoder string) (bool, error) {
	cmd := exec.CommandContext(ctx, ffmpegBinary, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	return parseEncoders(output, encoder), nil
}

// parseEncoders scans `ffmpeg -encoders` output. Each encoder row starts with
// a six-character capability column followed by the encoder name.
func parseEncoders(output []byte, encoder string) bool {
	encoder = strings.TrimSpace(encoder)
	if encoder == "" {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		if fields[0][0] != 'V' {
			continue
		}
		if fields[1] == encoder {
			return true
		}
	}
	return false
}
