package syncer

import (
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"kakehashi/constants"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const defaultDialTimeout = 15 * time.Second

// SSHDialer opens password-authenticated SFTP sessions.
type SSHDialer struct {
	Timeout time.Duration
}

// Dial connects to the endpoint and opens an SFTP subsystem on top of the
// SSH connection. Dial failures come back as *TransferError.
func (d SSHDialer) Dial(ep Endpoint) (RemoteFS, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	port := ep.Port
	if port == 0 {
		port = constants.DefaultSyncPort
	}

	cfg := &ssh.ClientConfig{
		User: ep.Username,
		Auth: []ssh.AuthMethod{ssh.Password(ep.Password)},
		// The target is a LAN handheld whose host key changes on reimage;
		// keys are not pinned.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	conn, err := ssh.Dial("tcp", net.JoinHostPort(ep.Host, strconv.Itoa(port)), cfg)
	if err != nil {
		return nil, &TransferError{Op: "connect", Err: err}
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, &TransferError{Op: "sftp", Err: err}
	}

	return &session{conn: conn, sftp: client}, nil
}

// session binds the SSH connection and its SFTP client so both are released
// together.
type session struct {
	conn *ssh.Client
	sftp *sftp.Client
}

func (s *session) Stat(path string) (os.FileInfo, error) {
	return s.sftp.Stat(path)
}

func (s *session) MkdirAll(path string) error {
	return s.sftp.MkdirAll(path)
}

func (s *session) Create(path string) (io.WriteCloser, error) {
	return s.sftp.Create(path)
}

func (s *session) Close() error {
	err := s.sftp.Close()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
