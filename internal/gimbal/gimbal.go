// Package gimbal drives the physical beam steering mount. The mount exposes
// its axes as sysfs attributes on an embedded controller, written over SSH.
package gimbal

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config describes the mount controller connection.
type Config struct {
	Host     string
	User     string
	Password string
	KeyPath  string
	Port     int

	// BasePath is the sysfs directory holding the axis attributes.
	BasePath string
}

// Pointer writes pointing setpoints to the mount's sysfs attributes over a
// lazily established SSH connection.
type Pointer struct {
	mu     sync.Mutex
	cfg    Config
	client *ssh.Client
}

// New validates configuration and prepares a pointer instance.
func New(cfg Config) (*Pointer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("gimbal host is required")
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/sys/class/gimbal/mount0"
	}
	return &Pointer{cfg: cfg}, nil
}

// Point commands the mount to the given direction. Both axes are written so
// a partial failure leaves an error rather than a silently skewed mount.
func (p *Pointer) Point(ctx context.Context, azimuth, elevation float64) error {
	if err := p.writeAttribute(ctx, "azimuth", formatAngle(azimuth)); err != nil {
		return err
	}
	return p.writeAttribute(ctx, "elevation", formatAngle(elevation))
}

// Close tears down the SSH connection, if one was established.
func (p *Pointer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

func (p *Pointer) writeAttribute(ctx context.Context, attr, value string) error {
	client, err := p.dial(ctx)
	if err != nil {
		return err
	}

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("create ssh session: %w", err)
	}
	defer session.Close()

	// printf avoids shell interpretation of the value contents.
	cmd := fmt.Sprintf("printf %s > %s", shellQuote(value), p.attributePath(attr))
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("write %s via ssh: %w", attr, err)
	}
	return nil
}

func (p *Pointer) dial(ctx context.Context) (*ssh.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	auth := []ssh.AuthMethod{}
	if p.cfg.Password != "" {
		auth = append(auth, ssh.Password(p.cfg.Password))
	}
	if p.cfg.KeyPath != "" {
		key, err := os.ReadFile(p.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh password or key configured")
	}

	config := &ssh.ClientConfig{
		User:            p.cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ssh: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return nil, fmt.Errorf("create ssh client: %w", err)
	}

	p.client = ssh.NewClient(clientConn, chans, reqs)
	return p.client, nil
}

func (p *Pointer) attributePath(attr string) string {
	return filepath.Join(p.cfg.BasePath, attr)
}

// formatAngle renders an axis setpoint the controller's parser accepts.
func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// shellQuote returns a value wrapped in single quotes with embedded quotes
// escaped for safe shell usage.
func shellQuote(value string) string {
	escaped := strings.ReplaceAll(value, "'", "'\\''")
	return fmt.Sprintf("'%s'", escaped)
}
