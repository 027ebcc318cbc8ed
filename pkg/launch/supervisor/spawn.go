// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/provide-io/craftlaunch/pkg/launch/compose"
	launcherrors "github.com/provide-io/craftlaunch/pkg/launch/errors"
)

const maxLineBytes = 1 << 20

// process is a started game. The writers are closed once Wait returns so
// the pumps reading the other ends see EOF.
type process struct {
	handle  *Handle
	cmd     *exec.Cmd
	stdout  *io.PipeReader
	stderr  *io.PipeReader
	stdoutW *io.PipeWriter
	stderrW *io.PipeWriter
}

// Kill terminates the game process.
func (h *Handle) Kill() error {
	if h.process == nil {
		return errors.New("process not started")
	}
	return h.process.Kill()
}

func scriptCommand(path string, dialect compose.Dialect) *exec.Cmd {
	if dialect == compose.DialectWindows {
		return exec.Command("cmd.exe", "/c", path)
	}
	return exec.Command(path)
}

// spawn starts the script. The game is not tied to any context: once
// started it runs until it exits on its own or is killed. Output is copied
// through in-memory pipes so Wait can give up on streams that a leftover
// child keeps open, outputGrace after the game exits.
func (s *Supervisor) spawn(plan *Plan, scriptPath string, logger hclog.Logger) (*process, error) {
	cmd := scriptCommand(scriptPath, s.dialect)
	cmd.WaitDelay = s.outputGrace

	stdout, stdoutW := io.Pipe()
	stderr, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	logger.Info("🚀 Executing launch script", "path", scriptPath)
	logger.Debug("🚀 Full command", "interpreter", plan.Runtime.Path, "main", plan.Metadata.MainClass)
	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stderrW.Close()
		return nil, fmt.Errorf("%w: %v", launcherrors.ErrLaunchFailed, err)
	}

	return &process{
		handle: &Handle{
			ID:         uuid.NewString(),
			AccountID:  plan.AccountID(),
			Profile:    plan.Profile.Name,
			Pid:        cmd.Process.Pid,
			StartedAt:  time.Now(),
			ScriptPath: scriptPath,
			process:    cmd.Process,
		},
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		stdoutW: stdoutW,
		stderrW: stderrW,
	}, nil
}

// supervise pumps both output streams while waiting for the process and
// returns its exit code once every line has been delivered.
func (s *Supervisor) supervise(a *attempt, proc *process, showLogs bool) int {
	var g errgroup.Group
	g.Go(func() error { return s.pump(a, proc.stdout, Stdout, showLogs) })
	g.Go(func() error { return s.pump(a, proc.stderr, Stderr, showLogs) })

	waitErr := proc.cmd.Wait()
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		a.logger.Warn("⚠️ Output still open after exit, detaching", "pid", proc.handle.Pid)
	}
	proc.stdoutW.Close()
	proc.stderrW.Close()

	if err := g.Wait(); err != nil {
		a.logger.Debug("⚠️ Output stream error", "error", err)
	}
	return exitCode(proc.cmd, waitErr)
}

func (s *Supervisor) pump(a *attempt, r io.Reader, stream Stream, showLogs bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		if showLogs {
			a.send(Event{Kind: EventOutput, Line: line, Stream: stream})
		} else {
			a.logger.Trace("🎮 "+string(stream), "line", line)
		}
	}

	err := scanner.Err()
	if err != nil {
		// Keep the pipe drained so the game never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, r)
	}
	return err
}

func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
