// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package remote handles the connection to a site's server: SSH command
// execution and SFTP file transfer over a single dialed connection.
package remote

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/security"
)

// Default timeouts. Dial failures surface quickly; remote WP-CLI work
// (database export on a large site) can legitimately run minutes.
const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultCommandTimeout = 5 * time.Minute
)

// Config describes how to reach a site's server.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       security.Secret // used when KeyFile is empty
	KeyFile        string          // optional path to a private key
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// Client is a live SSH connection with an SFTP subsystem on top.
type Client struct {
	cfg  Config
	ssh  *ssh.Client
	sftp *sftp.Client
}

// hostKeyCallback verifies against the user's known_hosts file when one
// exists. Without one we accept the presented key and log its fingerprint,
// mirroring a first-connection trust-on-first-use workflow.
func hostKeyCallback() ssh.HostKeyCallback {
	home, err := os.UserHomeDir()
	if err == nil {
		knownHosts := filepath.Join(home, ".ssh", "known_hosts")
		if _, statErr := os.Stat(knownHosts); statErr == nil {
			if cb, khErr := knownhosts.New(knownHosts); khErr == nil {
				return cb
			}
		}
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		logging.Warnf("no known_hosts entry for %s, accepting key %s", hostname, ssh.FingerprintSHA256(key))
		return nil
	}
}

// Dial opens the SSH connection and the SFTP subsystem.
func Dial(cfg Config) (*Client, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	var auth []ssh.AuthMethod
	if cfg.KeyFile != "" {
		keyData, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key %s: %w", cfg.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if !cfg.Password.IsZero() {
		auth = append(auth, ssh.Password(cfg.Password.Reveal()))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no authentication method available (no password stored and no key file configured)")
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(),
		Timeout:         cfg.DialTimeout,
	}

	logging.Debugf("connecting to %s as %s", addr, cfg.User)
	sshClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return &Client{cfg: cfg, ssh: sshClient, sftp: sftpClient}, nil
}

// Run executes a command on the remote server and returns its stdout and
// stderr. A non-zero exit status is returned as an error carrying the
// captured stderr. The configured command timeout closes the session if the
// command stalls.
func (c *Client) Run(command string) (string, string, error) {
	session, err := c.ssh.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	timer := time.AfterFunc(c.cfg.CommandTimeout, func() {
		_ = session.Close()
	})
	defer timer.Stop()

	logging.Debugf("executing remote command: %s", command)
	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(),
				fmt.Errorf("remote command exited with status %d: %s", exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), stderr.String(), fmt.Errorf("remote command failed: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

// TestConnection runs a trivial command and reports the result.
func (c *Client) TestConnection() error {
	out, _, err := c.Run("echo ok")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "ok" {
		return fmt.Errorf("unexpected echo output: %q", out)
	}
	return nil
}

// HasBinary reports whether a binary is available on the remote PATH.
func (c *Client) HasBinary(name string) bool {
	_, _, err := c.Run("command -v " + name)
	return err == nil
}

// Close closes the underlying SSH and SFTP clients.
func (c *Client) Close() {
	if c.sftp != nil {
		c.sftp.Close()
	}
	if c.ssh != nil {
		c.ssh.Close()
	}
}
