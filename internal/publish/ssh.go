// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

// package publish uploads finished galleries to a remote web host over SFTP.
// Host keys are pinned in the database; unknown or changed keys refuse the
// connection.
package publish

import (
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// RemoteLatestName is the stable name the newest gallery is published under.
const RemoteLatestName = "latest.jpg"

// HostKeyStore looks up the pinned public key for a host. An empty string
// means the host is not trusted yet.
type HostKeyStore interface {
	GetKnownHostKey(hostname string) (string, error)
}

// Publisher holds the connection settings for the remote gallery host.
type Publisher struct {
	Host        string
	User        string
	RemoteDir   string
	KeyData     []byte // PEM private key; empty means agent-only auth
	Passphrase  []byte // optional key passphrase
	KeepHistory bool
	HostKeys    HostKeyStore
}

// Conn is an established SSH+SFTP session to the gallery host.
type Conn struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// hostKeyChecker builds the callback that enforces the pinned host key.
func hostKeyChecker(store HostKeyStore) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// The hostname can include the port; the pin is stored without it.
		host, _, err := net.SplitHostPort(hostname)
		if err != nil {
			host = hostname
		}

		presented := string(ssh.MarshalAuthorizedKey(key))

		known, err := store.GetKnownHostKey(host)
		if err != nil {
			return fmt.Errorf("query pinned host keys: %w", err)
		}
		if known == "" {
			return fmt.Errorf("unknown host key for %s. run 'driftwatch trust-host' to add it", host)
		}
		if known != presented {
			return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", host, presented)
		}
		return nil
	}
}

// Connect dials the gallery host. A configured private key is tried first;
// on an authentication failure the SSH agent is tried as a fallback.
func (p *Publisher) Connect() (*Conn, error) {
	callback := hostKeyChecker(p.HostKeys)

	addr := p.Host
	if _, _, err := net.SplitHostPort(p.Host); err != nil {
		addr = net.JoinHostPort(p.Host, "22")
	}

	var finalErr error
	if len(p.KeyData) > 0 {
		signer, err := parseKey(p.KeyData, p.Passphrase)
		if err != nil {
			return nil, err
		}

		config := &ssh.ClientConfig{
			User:            p.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: callback,
			Timeout:         10 * time.Second,
		}

		client, err := ssh.Dial("tcp", addr, config)
		if err == nil {
			return newConn(client)
		}
		if !strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("connection with publish key failed: %w", err)
		}
		finalErr = err
	}

	agentClient := getSSHAgent()
	if agentClient == nil {
		if finalErr != nil {
			return nil, fmt.Errorf("publish key authentication failed, and no SSH agent available for fallback: %w", finalErr)
		}
		return nil, fmt.Errorf("no authentication method available (no publish key configured and no ssh agent found)")
	}

	config := &ssh.ClientConfig{
		User:            p.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)},
		HostKeyCallback: callback,
		Timeout:         10 * time.Second,
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("connection with ssh agent failed: %w", err)
	}
	return newConn(client)
}

func parseKey(data, passphrase []byte) (ssh.Signer, error) {
	if len(passphrase) > 0 {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(data, passphrase)
		if err != nil {
			return nil, fmt.Errorf("unable to parse publish key: %w", err)
		}
		return signer, nil
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse publish key: %w", err)
	}
	return signer, nil
}

func newConn(client *ssh.Client) (*Conn, error) {
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create sftp client: %w", err)
	}
	return &Conn{client: client, sftp: sftpClient}, nil
}

// Upload publishes a gallery file. The file lands as latest.jpg via a
// temporary name and an atomic rename; with KeepHistory set a timestamped
// copy is uploaded alongside it.
func (p *Publisher) Upload(c *Conn, localPath string) error {
	if err := c.upload(localPath, path.Join(p.RemoteDir, RemoteLatestName)); err != nil {
		return err
	}
	if p.KeepHistory {
		name := HistoryName(time.Now())
		if err := c.upload(localPath, path.Join(p.RemoteDir, name)); err != nil {
			return fmt.Errorf("upload history copy: %w", err)
		}
	}
	return nil
}

// HistoryName is the remote filename for an archived gallery.
func HistoryName(t time.Time) string {
	return fmt.Sprintf("gallery_%s.jpg", t.Format("20060102_150405"))
}

func (c *Conn) upload(localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	dir := path.Dir(remotePath)
	tmpPath := path.Join(dir, fmt.Sprintf(".driftwatch-upload.%d", time.Now().UnixNano()))

	f, err := c.sftp.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temporary file on remote: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		_ = c.sftp.Remove(tmpPath)
		return fmt.Errorf("write temporary file on remote: %w", err)
	}
	f.Close()

	// World-readable so the web server can serve it.
	if err := c.sftp.Chmod(tmpPath, 0644); err != nil {
		_ = c.sftp.Remove(tmpPath)
		return fmt.Errorf("chmod temporary file: %w", err)
	}

	if err := c.sftp.Rename(tmpPath, remotePath); err != nil {
		_ = c.sftp.Remove(tmpPath)
		return fmt.Errorf("rename %s into place: %w", remotePath, err)
	}
	return nil
}

// Close closes the underlying SFTP and SSH clients.
func (c *Conn) Close() {
	if c.sftp != nil {
		c.sftp.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
}

// GetRemoteHostKey connects to a host just to retrieve its public key, for
// the trust-host flow. The handshake is aborted once the key is presented.
func GetRemoteHostKey(host string) (ssh.PublicKey, error) {
	keyChan := make(chan ssh.PublicKey, 1)

	config := &ssh.ClientConfig{
		User: "driftwatch-probe",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			keyChan <- key
			return fmt.Errorf("driftwatch: successfully retrieved host key")
		},
		Timeout: 5 * time.Second,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	// The dial is expected to fail with the sentinel from the callback.
	_, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if strings.Contains(err.Error(), "driftwatch: successfully retrieved host key") {
			return <-keyChan, nil
		}
		return nil, fmt.Errorf("connect to %s: %w", host, err)
	}
	return nil, fmt.Errorf("ssh.Dial succeeded unexpectedly, could not retrieve key")
}
