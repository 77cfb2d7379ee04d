package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/smartpc/mediactl/internal/logging"
)

// espeak-ng defaults for a multiplier of 1.0.
const (
	espeakBaseWPM   = 175
	espeakBasePitch = 50
)

// ESpeak drives the espeak-ng command line synthesizer.
type ESpeak struct {
	Binary string

	logger *zerolog.Logger

	// run executes the binary and returns its stdout.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewESpeak returns a synthesizer using binary, or "espeak-ng" when empty.
func NewESpeak(binary string) *ESpeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	e := &ESpeak{Binary: binary, logger: logging.GetSubsystemLogger("speech")}
	e.run = e.runCommand
	return e
}

type processOutput struct {
	logger *zerolog.Logger
}

func (o *processOutput) Write(p []byte) (int, error) {
	o.logger.Debug().Str("output", string(p)).Msg("synthesizer output")
	return len(p), nil
}

func (e *ESpeak) runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	configureProcess(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(&stderr, &processOutput{logger: e.logger})
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (e *ESpeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := e.run(ctx, e.Binary, "--voices")
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return parseVoices(out), nil
}

func (e *ESpeak) Speak(ctx context.Context, u Utterance) error {
	if _, err := e.run(ctx, e.Binary, speakArgs(u)...); err != nil {
		return fmt.Errorf("failed to speak: %w", err)
	}
	return nil
}

func speakArgs(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	pitch := u.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	volume := u.Volume
	if volume < 0 {
		volume = 0
	}

	args := []string{
		"-s", strconv.Itoa(int(math.Round(espeakBaseWPM * rate))),
		"-p", strconv.Itoa(int(math.Min(99, math.Round(espeakBasePitch*pitch)))),
		"-a", strconv.Itoa(volume),
	}
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	}
	// "--" keeps text starting with a dash from being read as a flag.
	return append(args, "--", u.Text)
}

// parseVoices reads the table printed by "espeak-ng --voices":
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 3)
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.HasPrefix(strings.TrimSpace(line), "Pty") {
				continue
			}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: fields[1],
		})
	}
	return voices
}
