package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"pipesyslog/internal/global"
	"pipesyslog/internal/logctx"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Follows appended content of one file through an external tail process
type Tail struct {
	gate
	file         string
	command      string
	startupCheck time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{} // closed once the process has been reaped
	stop   func() bool
}

func (tail *Tail) Kind() Kind { return KindTail }

func (tail *Tail) Describe() string { return string(KindTail) + ":" + tail.file }

// Closed once the tail process has exited and been reaped
func (tail *Tail) Exited() <-chan struct{} { return tail.exited }

// Spawns the tail process. Output already in the file is never read.
func (tail *Tail) Open(ctx context.Context, fwd Forwarder) (err error) {
	if tail.isClosed() {
		err = fmt.Errorf("tail channel %s already closed", tail.file)
		return
	}

	cmd := exec.Command(tail.command, "-n", "0", "-f", tail.file)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		err = fmt.Errorf("failed to create stdout pipe for tail command: %v", err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		err = fmt.Errorf("failed to create stderr pipe for tail command: %v", err)
		return
	}

	err = cmd.Start()
	if err != nil {
		err = fmt.Errorf("failed to start tail command: %v", err)
		return
	}

	tail.mu.Lock()
	tail.cmd = cmd
	tail.mu.Unlock()

	// Check stderr for potential startup errors, treat any stderr output as fatal
	startupErr := checkStartup(stderr, tail.startupCheck)
	if startupErr != nil {
		cmd.Process.Kill()
		cmd.Wait()
		close(tail.exited)
		err = fmt.Errorf("tail of %s failed to start: %v", tail.file, startupErr)
		return
	}

	// Channel ends with the context that opened it
	tail.mu.Lock()
	tail.stop = context.AfterFunc(ctx, func() { tail.Close() })
	tail.mu.Unlock()

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Following %s (pid %d)\n", tail.file, cmd.Process.Pid)

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		tail.readLines(ctx, stdout, fwd)
	}()
	go tail.logStderr(ctx, stderr)

	// Reap in background so Close never blocks on process exit
	go func() {
		<-readerDone
		waitErr := cmd.Wait()
		if waitErr != nil && !tail.isClosed() {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"tail of %s exited unexpectedly: %v\n", tail.file, waitErr)
		}
		close(tail.exited)
	}()
	return
}

// Kills the tail process. Buffered partial output is discarded.
func (tail *Tail) Close() (err error) {
	if tail.shut() {
		return
	}

	tail.mu.Lock()
	defer tail.mu.Unlock()

	if tail.stop != nil {
		tail.stop()
	}
	if tail.cmd == nil || tail.cmd.Process == nil {
		// Never started
		select {
		case <-tail.exited:
		default:
			close(tail.exited)
		}
		return
	}

	err = tail.cmd.Process.Kill()
	if err == os.ErrProcessDone {
		err = nil
	}
	return
}

// Reads stderr until timeout. Any output means the tail could not follow the file.
func checkStartup(stderr io.Reader, timeout time.Duration) (err error) {
	errFile, ok := stderr.(*os.File)
	if !ok {
		return
	}

	err = errFile.SetReadDeadline(time.Now().Add(timeout))
	if err != nil {
		err = fmt.Errorf("failed to set deadline on stderr reader: %v", err)
		return
	}

	buf := make([]byte, 4096)
	bytesRead, readErr := errFile.Read(buf)
	if readErr != nil && !os.IsTimeout(readErr) && readErr != io.EOF {
		err = fmt.Errorf("failed to read tail stderr: %v", readErr)
		return
	}

	message := strings.TrimSpace(string(buf[:bytesRead]))
	if message != "" {
		err = fmt.Errorf("%s", message)
		return
	}

	// Remove deadline for future blocking reads
	errFile.SetReadDeadline(time.Time{})
	return
}

func (tail *Tail) readLines(ctx context.Context, stdout io.Reader, fwd Forwarder) {
	// Record panics and continue working
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in tail reader for %s: %v\n%s", tail.file, fatalError, stack)
			// Keep draining so the process is never blocked on a full pipe
			io.Copy(io.Discard, stdout)
		}
	}()

	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Partial trailing line is dropped
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if !tail.forward(fwd, line) {
			io.Copy(io.Discard, reader)
			return
		}
	}
}

func (tail *Tail) logStderr(ctx context.Context, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"tail of %s: %s\n", tail.file, scanner.Text())
	}
}
