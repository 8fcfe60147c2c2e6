// Package syncer pushes gamelist and media files to the handheld over one
// SFTP session per job. Progress is streamed over a channel in processing
// order; the terminal event carries the summary.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"kakehashi/utils/fileio"

	"github.com/pkg/sftp"
)

// ErrJobRunning is returned when a transfer is requested while another job
// is still in flight. One session per endpoint at a time.
var ErrJobRunning = errors.New("a sync job is already running")

// TransferError is a connection-level failure: dial, auth, or a lost
// session. It is fatal to the whole job, unlike per-file errors.
type TransferError struct {
	Op  string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("sync %s failed: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Endpoint identifies the remote host for a job.
type Endpoint struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Task is one file to push: a local path and its forward-slash remote path.
type Task struct {
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path"`
}

// Job is one user-initiated batch transfer. Not persisted.
type Job struct {
	ID        string `json:"id"`
	Endpoint  Endpoint
	Tasks     []Task `json:"tasks"`
	Overwrite bool   `json:"overwrite"` // false = skip files with matching remote size
}

// EventKind classifies progress events.
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventTransferred EventKind = "transferred"
	EventSkipped     EventKind = "skipped"
	EventFailed      EventKind = "failed"
	EventNote        EventKind = "note"
	EventCanceled    EventKind = "canceled"
	EventFatal       EventKind = "fatal"
	EventDone        EventKind = "done"
)

// ProgressEvent is emitted per file as it starts and finishes, plus one
// terminal done or fatal event.
type ProgressEvent struct {
	JobID   string    `json:"job_id"`
	Kind    EventKind `json:"kind"`
	File    string    `json:"file"`
	Index   int       `json:"index"`
	Total   int       `json:"total"`
	Error   string    `json:"error,omitempty"`
	Summary *Summary  `json:"summary,omitempty"`
}

// Summary counts the job outcome per file.
type Summary struct {
	Transferred int `json:"transferred"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// RemoteFS is the remote file surface a job needs from an open session.
type RemoteFS interface {
	Stat(path string) (os.FileInfo, error)
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
	Close() error
}

// Dialer opens a transfer session against an endpoint.
type Dialer interface {
	Dial(ep Endpoint) (RemoteFS, error)
}

// Logger defines the logging surface services get from the app.
type Logger interface {
	LogInfof(format string, args ...interface{})
	LogErrorf(format string, args ...interface{})
}

// Service runs transfer jobs, one at a time.
type Service struct {
	dialer Dialer
	log    Logger

	mu      sync.Mutex
	running bool
}

// New creates a new sync service.
func New(dialer Dialer, log Logger) *Service {
	return &Service{dialer: dialer, log: log}
}

// TestConnection opens and immediately closes a session to validate the
// endpoint configuration. The handle is released on both outcomes.
func (s *Service) TestConnection(ep Endpoint) error {
	remote, err := s.dialer.Dial(ep)
	if err != nil {
		return err
	}
	return remote.Close()
}

// Start launches the job on a background worker and returns its ordered
// event stream. The channel is closed after the terminal event. A second
// Start while a job is in flight returns ErrJobRunning.
func (s *Service) Start(ctx context.Context, job Job) (<-chan ProgressEvent, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrJobRunning
	}
	s.running = true
	s.mu.Unlock()

	events := make(chan ProgressEvent, 64)
	go func() {
		defer close(events)
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		s.run(ctx, job, events)
	}()
	return events, nil
}

func (s *Service) run(ctx context.Context, job Job, events chan<- ProgressEvent) {
	var sum Summary
	total := len(job.Tasks)

	remote, err := s.dialer.Dial(job.Endpoint)
	if err != nil {
		s.log.LogErrorf("sync %s: connection failed: %v", job.ID, err)
		events <- ProgressEvent{JobID: job.ID, Kind: EventFatal, Error: err.Error(), Summary: &sum}
		return
	}
	defer fileio.Close(remote, s.log.LogErrorf, "sync: closing session")

	for i, t := range job.Tasks {
		// Cancellation takes effect between files, never mid-stream, so no
		// partial file is left dangling on the remote.
		if ctx.Err() != nil {
			s.log.LogInfof("sync %s: canceled after %d of %d files", job.ID, i, total)
			events <- ProgressEvent{JobID: job.ID, Kind: EventCanceled, Index: i, Total: total}
			break
		}

		name := path.Base(t.RemotePath)
		events <- ProgressEvent{JobID: job.ID, Kind: EventStarted, File: name, Index: i + 1, Total: total}

		if !job.Overwrite && s.remoteMatches(remote, t) {
			sum.Skipped++
			events <- ProgressEvent{JobID: job.ID, Kind: EventSkipped, File: name, Index: i + 1, Total: total}
			continue
		}

		if err := s.copyFile(remote, t); err != nil {
			sum.Failed++
			s.log.LogErrorf("sync %s: %s: %v", job.ID, t.RemotePath, err)
			events <- ProgressEvent{JobID: job.ID, Kind: EventFailed, File: name, Index: i + 1, Total: total, Error: err.Error()}
			if connectionLost(err) {
				events <- ProgressEvent{JobID: job.ID, Kind: EventFatal, Error: err.Error(), Summary: &sum}
				return
			}
			continue
		}

		sum.Transferred++
		events <- ProgressEvent{JobID: job.ID, Kind: EventTransferred, File: name, Index: i + 1, Total: total}
	}

	s.log.LogInfof("sync %s: done, transferred=%d skipped=%d failed=%d",
		job.ID, sum.Transferred, sum.Skipped, sum.Failed)
	events <- ProgressEvent{JobID: job.ID, Kind: EventDone, Total: total, Summary: &sum}
}

// remoteMatches reports whether the remote file exists with the same size as
// the local one, which is the skip-existing criterion.
func (s *Service) remoteMatches(remote RemoteFS, t Task) bool {
	rinfo, err := remote.Stat(t.RemotePath)
	if err != nil {
		return false
	}
	linfo, err := os.Stat(t.LocalPath)
	if err != nil {
		return false
	}
	return rinfo.Size() == linfo.Size()
}

func (s *Service) copyFile(remote RemoteFS, t Task) error {
	src, err := os.Open(t.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer fileio.Close(src, s.log.LogErrorf, "sync: closing local file")

	if dir := path.Dir(t.RemotePath); dir != "" && dir != "." && dir != "/" {
		if err := remote.MkdirAll(dir); err != nil {
			return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
		}
	}

	dst, err := remote.Create(t.RemotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write remote file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close remote file: %w", err)
	}
	return nil
}

func connectionLost(err error) bool {
	return errors.Is(err, sftp.ErrSSHFxConnectionLost) ||
		errors.Is(err, sftp.ErrSSHFxNoConnection) ||
		errors.Is(err, io.EOF)
}
