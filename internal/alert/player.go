package alert

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Player is the looping audio resource owned by the Presenter. Implementations
// must make Play idempotent while already playing and must survive Pause/Reset
// when nothing is playing.
type Player interface {
	// Play starts the loop from the beginning. An error means the terminal
	// cannot produce sound right now; callers degrade to visual-only alerting.
	Play() error
	// Pause stops playback.
	Pause()
	// Reset rewinds to the start so the next Play begins instantly.
	Reset()
}

// ExecPlayer plays a sound file on the terminal's speakers by running an
// external player command in an endless loop (mpg123-style: the command is
// invoked with "--loop -1 <file>"). Pause kills the process; each Play starts
// a fresh process, which is also what makes Reset a no-op.
type ExecPlayer struct {
	command string
	sound   string
	logger  *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewExecPlayer(command, sound string, logger *slog.Logger) *ExecPlayer {
	return &ExecPlayer{command: command, sound: sound, logger: logger}
}

func (p *ExecPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil
	}

	cmd := exec.Command(p.command, "-q", "--loop", "-1", p.sound)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start audio player: %w", err)
	}
	p.cmd = cmd

	// Reap the process whenever it exits, including an external kill.
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			if err != nil {
				p.logger.Debug("audio player exited", "error", err)
			}
		}
		p.mu.Unlock()
	}()
	return nil
}

func (p *ExecPlayer) Pause() {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			p.logger.Debug("failed to stop audio player", "error", err)
		}
	}
}

// Reset is a no-op: every Play spawns a fresh process that starts at the top
// of the file.
func (p *ExecPlayer) Reset() {}

// NopPlayer is a silent Player for installs without a sound device.
type NopPlayer struct{}

func (NopPlayer) Play() error { return nil }
func (NopPlayer) Pause()      {}
func (NopPlayer) Reset()      {}
