package syncer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
)

type mockLogger struct{}

func (mockLogger) LogInfof(format string, args ...interface{})  {}
func (mockLogger) LogErrorf(format string, args ...interface{}) {}

type fakeFileInfo struct {
	name string
	size int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() os.FileMode  { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// mockRemote is an in-memory RemoteFS recording every mutation.
type mockRemote struct {
	files      map[string][]byte
	dirs       map[string]bool
	createErr  map[string]error
	writeCount int
	closed     bool
}

func newMockRemote() *mockRemote {
	return &mockRemote{
		files:     make(map[string][]byte),
		dirs:      make(map[string]bool),
		createErr: make(map[string]error),
	}
}

func (m *mockRemote) Stat(path string) (os.FileInfo, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeFileInfo{name: path, size: int64(len(data))}, nil
}

func (m *mockRemote) MkdirAll(path string) error {
	m.dirs[path] = true
	return nil
}

func (m *mockRemote) Create(path string) (io.WriteCloser, error) {
	if err := m.createErr[path]; err != nil {
		return nil, err
	}
	m.writeCount++
	return &mockRemoteFile{remote: m, path: path}, nil
}

func (m *mockRemote) Close() error {
	m.closed = true
	return nil
}

type mockRemoteFile struct {
	remote *mockRemote
	path   string
	buf    bytes.Buffer
}

func (f *mockRemoteFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *mockRemoteFile) Close() error {
	f.remote.files[f.path] = f.buf.Bytes()
	return nil
}

type mockDialer struct {
	remote  *mockRemote
	dialErr error
	dials   int
}

func (d *mockDialer) Dial(ep Endpoint) (RemoteFS, error) {
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.remote, nil
}

func writeLocalFiles(t *testing.T, dir string, names map[string]string) map[string]string {
	t.Helper()
	paths := make(map[string]string, len(names))
	for name, content := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
		paths[name] = p
	}
	return paths
}

func collect(events <-chan ProgressEvent) []ProgressEvent {
	var got []ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func kinds(events []ProgressEvent) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestTestConnectionClosesSession(t *testing.T) {
	remote := newMockRemote()
	dialer := &mockDialer{remote: remote}
	s := New(dialer, mockLogger{})

	if err := s.TestConnection(Endpoint{Host: "deck"}); err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if dialer.dials != 1 {
		t.Errorf("Expected 1 dial, got %d", dialer.dials)
	}
	if !remote.closed {
		t.Error("Expected the probe session to be closed")
	}
}

func TestTestConnectionDialFailure(t *testing.T) {
	dialer := &mockDialer{dialErr: errors.New("auth failed")}
	s := New(dialer, mockLogger{})

	if err := s.TestConnection(Endpoint{Host: "deck"}); err == nil {
		t.Fatal("Expected dial error to propagate")
	}
}

func TestSkipsMatchingRemoteFile(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{"a.png": "12345"})

	remote := newMockRemote()
	remote.files["/dst/a.png"] = []byte("xxxxx") // same size, content not compared

	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, err := s.Start(context.Background(), Job{
		ID:    "job1",
		Tasks: []Task{{LocalPath: local["a.png"], RemotePath: "/dst/a.png"}},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	want := []EventKind{EventStarted, EventSkipped, EventDone}
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, kinds(got))
	}
	for i := range want {
		if got[i].Kind != want[i] {
			t.Fatalf("Expected events %v, got %v", want, kinds(got))
		}
	}
	if remote.writeCount != 0 {
		t.Errorf("Skip must not write, got %d writes", remote.writeCount)
	}
	sum := got[len(got)-1].Summary
	if sum == nil || sum.Skipped != 1 || sum.Transferred != 0 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
}

func TestOverwriteIgnoresMatchingRemote(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{"a.png": "12345"})

	remote := newMockRemote()
	remote.files["/dst/a.png"] = []byte("xxxxx")

	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, err := s.Start(context.Background(), Job{
		ID:        "job1",
		Tasks:     []Task{{LocalPath: local["a.png"], RemotePath: "/dst/a.png"}},
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	if got[len(got)-1].Summary.Transferred != 1 {
		t.Errorf("Overwrite should transfer regardless of size match: %+v", got[len(got)-1].Summary)
	}
	if string(remote.files["/dst/a.png"]) != "12345" {
		t.Errorf("Remote content not replaced: %q", remote.files["/dst/a.png"])
	}
}

func TestPerFileFailureIsNotFatal(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{
		"a.png": "aa", "b.png": "bb", "c.png": "cc",
	})

	remote := newMockRemote()
	remote.createErr["/dst/b.png"] = errors.New("permission denied")

	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, err := s.Start(context.Background(), Job{
		ID: "job1",
		Tasks: []Task{
			{LocalPath: local["a.png"], RemotePath: "/dst/a.png"},
			{LocalPath: local["b.png"], RemotePath: "/dst/b.png"},
			{LocalPath: local["c.png"], RemotePath: "/dst/c.png"},
		},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	last := got[len(got)-1]
	if last.Kind != EventDone {
		t.Fatalf("Expected terminal done event, got %v", kinds(got))
	}
	if last.Summary.Transferred != 2 || last.Summary.Failed != 1 {
		t.Errorf("Expected 2 transferred / 1 failed, got %+v", last.Summary)
	}
	if _, ok := remote.files["/dst/c.png"]; !ok {
		t.Error("Files after the failed one must still transfer")
	}
}

func TestConnectionLostIsFatal(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{
		"a.png": "aa", "b.png": "bb", "c.png": "cc",
	})

	remote := newMockRemote()
	remote.createErr["/dst/b.png"] = sftp.ErrSSHFxConnectionLost

	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, err := s.Start(context.Background(), Job{
		ID: "job1",
		Tasks: []Task{
			{LocalPath: local["a.png"], RemotePath: "/dst/a.png"},
			{LocalPath: local["b.png"], RemotePath: "/dst/b.png"},
			{LocalPath: local["c.png"], RemotePath: "/dst/c.png"},
		},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	last := got[len(got)-1]
	if last.Kind != EventFatal {
		t.Fatalf("Expected terminal fatal event, got %v", kinds(got))
	}
	if last.Summary.Transferred != 1 || last.Summary.Failed != 1 {
		t.Errorf("Unexpected summary at abort: %+v", last.Summary)
	}
	if _, ok := remote.files["/dst/c.png"]; ok {
		t.Error("No file after a lost connection should be attempted")
	}
}

func TestDialFailureEmitsFatal(t *testing.T) {
	s := New(&mockDialer{dialErr: errors.New("no route to host")}, mockLogger{})
	events, err := s.Start(context.Background(), Job{
		ID:    "job1",
		Tasks: []Task{{LocalPath: "a", RemotePath: "/dst/a"}},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	if len(got) != 1 || got[0].Kind != EventFatal {
		t.Fatalf("Expected a single fatal event, got %v", kinds(got))
	}
	if got[0].Error == "" {
		t.Error("Fatal event should carry the dial error")
	}
}

func TestSecondJobRefused(t *testing.T) {
	s := New(&mockDialer{remote: newMockRemote()}, mockLogger{})
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	_, err := s.Start(context.Background(), Job{ID: "job2"})
	if !errors.Is(err, ErrJobRunning) {
		t.Errorf("Expected ErrJobRunning, got %v", err)
	}
}

func TestCancelStopsBeforeNextFile(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{"a.png": "aa"})

	remote := newMockRemote()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, err := s.Start(ctx, Job{
		ID:    "job1",
		Tasks: []Task{{LocalPath: local["a.png"], RemotePath: "/dst/a.png"}},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := collect(events)

	want := []EventKind{EventCanceled, EventDone}
	if len(got) != len(want) || got[0].Kind != want[0] || got[1].Kind != want[1] {
		t.Fatalf("Expected events %v, got %v", want, kinds(got))
	}
	if remote.writeCount != 0 {
		t.Error("Canceled job must not transfer")
	}
}

func TestStartReleasesSlotAfterJob(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{"a.png": "aa"})

	remote := newMockRemote()
	s := New(&mockDialer{remote: remote}, mockLogger{})

	job := Job{ID: "job1", Tasks: []Task{{LocalPath: local["a.png"], RemotePath: "/dst/a.png"}}}
	events, err := s.Start(context.Background(), job)
	if err != nil {
		t.Fatalf("First Start failed: %v", err)
	}
	collect(events)

	events, err = s.Start(context.Background(), job)
	if err != nil {
		t.Fatalf("Second Start after completion failed: %v", err)
	}
	collect(events)
}

func TestTransferCreatesRemoteDirs(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "syncer-test")
	defer os.RemoveAll(tmpDir)
	local := writeLocalFiles(t, tmpDir, map[string]string{"a.png": "aa"})

	remote := newMockRemote()
	s := New(&mockDialer{remote: remote}, mockLogger{})
	events, _ := s.Start(context.Background(), Job{
		ID:    "job1",
		Tasks: []Task{{LocalPath: local["a.png"], RemotePath: "/media/snes/covers/a.png"}},
	})
	collect(events)

	if !remote.dirs["/media/snes/covers"] {
		t.Errorf("Expected parent directory created, got %v", remote.dirs)
	}
	if string(remote.files["/media/snes/covers/a.png"]) != "aa" {
		t.Errorf("Unexpected remote content: %q", remote.files["/media/snes/covers/a.png"])
	}
}
