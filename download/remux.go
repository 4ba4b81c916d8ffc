package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/util"
)

// ErrRemuxUnavailable is returned when ffmpeg cannot be run.
var ErrRemuxUnavailable = errors.New("ffmpeg is not available")

// FFmpeg remuxes an assembled transport stream into an mp4 container without re-encoding.
type FFmpeg struct {
	Binary string
	Logger logrus.FieldLogger
}

// NewFFmpeg returns a remuxer running binary, "ffmpeg" when empty.
func NewFFmpeg(binary string, logger logrus.FieldLogger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FFmpeg{Binary: binary, Logger: logger}
}

// ConvertedName is the temporary output path for input.
func ConvertedName(input string) string {
	if i := strings.LastIndex(input, "."); i > strings.LastIndexAny(input, `/\`) {
		input = input[:i]
	}
	return input + "_converted.mp4"
}

// Remux runs `ffmpeg -i input -c copy -bsf:a aac_adtstoasc input_converted.mp4 -y`
// and moves the result over input.
func (f *FFmpeg) Remux(ctx context.Context, input string) error {
	if !filesystem.IsOs() {
		return fmt.Errorf("%w: files are not on disk", ErrRemuxUnavailable)
	}

	binary, err := exec.LookPath(f.Binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemuxUnavailable, err)
	}

	output := ConvertedName(input)
	cmd := exec.CommandContext(ctx, binary, "-i", input, "-c", "copy", "-bsf:a", "aac_adtstoasc", output, "-y")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.Logger.Infof("remuxing with %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		util.Ignore(func() error { return filesystem.API().Remove(output) })
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	if err := filesystem.API().Rename(output, input); err != nil {
		return fmt.Errorf("replace %s: %w", input, err)
	}

	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
