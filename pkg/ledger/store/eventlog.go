package store

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// FsyncPolicy controls when Append flushes to stable storage. Mirrors
// ledger.FsyncPolicy; duplicated here (rather than imported) to keep
// store free of a dependency on the parent package.
type FsyncPolicy int

const (
	FsyncNone FsyncPolicy = iota
	FsyncEveryWrite
	FsyncInterval
)

// EventLog is the append-only newline-delimited file described in
// §4.4: the system of record. One complete serialized event per line,
// UTF-8, appended in ingestion order. Never truncated by the core.
type EventLog struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	policy FsyncPolicy
	closed bool
}

// OpenEventLog opens path in append mode, creating it if absent.
func OpenEventLog(path string, policy FsyncPolicy) (*EventLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &EventLog{
		file:   f,
		writer: bufio.NewWriter(f),
		policy: policy,
	}, nil
}

// Append writes one line containing the given serialized event body,
// followed by a newline. Under FsyncEveryWrite, fsyncs before
// returning. Under FsyncNone, durability is left entirely to the OS
// page cache. Under FsyncInterval, Append itself does not fsync;
// CausalLedger drives durability by calling Sync on a timer (see
// startFsyncTicker in pkg/ledger/ledger.go).
func (l *EventLog) Append(line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if _, err := l.writer.Write(line); err != nil {
		return fmt.Errorf("append event log: %w", err)
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("append event log: %w", err)
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}

	if l.policy == FsyncEveryWrite {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("fsync event log: %w", err)
		}
	}
	return nil
}

// Sync flushes buffered writes and fsyncs the underlying file. Under
// FsyncInterval, CausalLedger's background ticker invokes this on a
// timer; it may also be called directly by any caller that wants an
// out-of-band flush.
func (l *EventLog) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying file. Idempotent.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// ReplayLines streams every well-formed line of the event log at path
// to fn, in file order. Corrupt or partial trailing lines are skipped
// via onSkip rather than aborting the replay, per §4.4/§6. If the
// file does not exist, ReplayLines treats that as an empty log rather
// than an error (a fresh ledger starting cold).
func ReplayLines(path string, fn func(lineNumber int, line []byte) error, onSkip func(lineNumber int, reason string)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open event log for replay: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			if onSkip != nil {
				onSkip(lineNumber, "empty line")
			}
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		if err := fn(lineNumber, cp); err != nil {
			if onSkip != nil {
				onSkip(lineNumber, err.Error())
			}
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan event log: %w", err)
	}
	return nil
}
