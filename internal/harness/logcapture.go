package harness

import (
	"bufio"
	"io"
	"sync"
)

// Logs holds the output captured from a fixture process.
type Logs struct {
	Stdout   []string
	Stderr   []string
	Combined []string
}

// logCapture collects subprocess output line by line so it can be
// attached to failure reports.
type logCapture struct {
	stdout *io.PipeWriter
	stderr *io.PipeWriter
	logs   *Logs
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

func newLogCapture() *logCapture {
	lc := &logCapture{
		logs: &Logs{
			Stdout:   []string{},
			Stderr:   []string{},
			Combined: []string{},
		},
	}

	stdoutReader, stdoutWriter := io.Pipe()
	stderrReader, stderrWriter := io.Pipe()
	lc.stdout = stdoutWriter
	lc.stderr = stderrWriter

	lc.wg.Add(2)
	go lc.captureOutput(stdoutReader, "stdout")
	go lc.captureOutput(stderrReader, "stderr")

	return lc
}

func (lc *logCapture) captureOutput(reader *io.PipeReader, stream string) {
	defer lc.wg.Done()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()

		lc.mu.Lock()
		switch stream {
		case "stdout":
			lc.logs.Stdout = append(lc.logs.Stdout, line)
		case "stderr":
			lc.logs.Stderr = append(lc.logs.Stderr, line)
		}
		lc.logs.Combined = append(lc.logs.Combined, line)
		lc.mu.Unlock()
	}
}

// close shuts the pipe writers and waits for the capture goroutines to
// drain. Call after the process has exited.
func (lc *logCapture) close() {
	lc.stdout.Close()
	lc.stderr.Close()
	lc.wg.Wait()
}

// getLogs returns a copy of the captured output.
func (lc *logCapture) getLogs() Logs {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	return Logs{
		Stdout:   append([]string{}, lc.logs.Stdout...),
		Stderr:   append([]string{}, lc.logs.Stderr...),
		Combined: append([]string{}, lc.logs.Combined...),
	}
}

// tail returns the last n combined output lines.
func (lc *logCapture) tail(n int) []string {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	combined := lc.logs.Combined
	if len(combined) > n {
		combined = combined[len(combined)-n:]
	}
	return append([]string{}, combined...)
}
