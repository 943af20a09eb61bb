package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"strconv"
	"time"

	"gradeflow/internal/config"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const sftpDialTimeout = 20 * time.Second

// ErrNoHostKeyCallback is returned when neither a known_hosts file nor
// insecure_ignore_host_key is configured.
var ErrNoHostKeyCallback = errors.New("sftp: known_hosts_file or insecure_ignore_host_key is required")

// SFTPSink uploads exports over SFTP with password authentication.
type SFTPSink struct {
	cfg    config.SFTPConfig
	prefix string
	ssh    *ssh.ClientConfig
}

// NewSFTPSink prepares the SSH client configuration. No connection is made
// until Put.
func NewSFTPSink(cfg config.SFTPConfig, prefix string) (*SFTPSink, error) {
	if cfg.Port <= 0 {
		cfg.Port = 22
	}

	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}

	cb, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	return &SFTPSink{
		cfg:    cfg,
		prefix: prefix,
		ssh: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
			HostKeyCallback: cb,
			Timeout:         sftpDialTimeout,
		},
	}, nil
}

func hostKeyCallback(cfg config.SFTPConfig) (ssh.HostKeyCallback, error) {
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("sftp: load known_hosts: %w", err)
		}

		return cb, nil
	}

	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	return nil, ErrNoHostKeyCallback
}

func (s *SFTPSink) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Put opens a fresh connection, ensures the remote directory exists and
// copies r to it.
func (s *SFTPSink) Put(ctx context.Context, name string, r io.Reader, _ int64) error {
	key, err := objectName(s.prefix, name)
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	sftpCli, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	remotePath := path.Join(s.cfg.RemoteDir, key)
	if err := sftpCli.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", path.Dir(remotePath), err)
	}

	dst, err := sftpCli.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("sftp: upload copy: %w", err)
	}

	return nil
}

func (s *SFTPSink) dial(ctx context.Context) (*ssh.Client, error) {
	d := net.Dialer{Timeout: sftpDialTimeout}

	conn, err := d.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return nil, fmt.Errorf("sftp: dial error: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, s.addr(), s.ssh)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp: handshake: %w", err)
	}

	return ssh.NewClient(c, chans, reqs), nil
}
