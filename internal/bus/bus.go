// Package bus is the daemon's control channel: a unix socket carrying
// one-byte commands and one-line replies, plus the pid file that keeps a
// second daemon from starting.
package bus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const SockName = "control.sock"
const PidName = "voxbridge.pid"
const ProtoVer = "0.2"

const dirName = "voxbridge"

// Commands understood by the daemon.
const (
	CmdToggle  byte = 't'
	CmdStatus  byte = 's'
	CmdLast    byte = 'l'
	CmdReset   byte = 'r'
	CmdCancel  byte = 'c'
	CmdVersion byte = 'v'
	CmdQuit    byte = 'q'
)

// Bus addresses the socket and pid file inside one runtime directory.
type Bus struct {
	socket *socketManager
	pid    *pidManager
}

// New places the socket and pid file in dir.
func New(dir string) *Bus {
	return &Bus{
		socket: &socketManager{path: filepath.Join(dir, SockName)},
		pid:    &pidManager{path: filepath.Join(dir, PidName)},
	}
}

// Default uses ~/.cache/voxbridge.
func Default() (*Bus, error) {
	dir, err := defaultDir()
	if err != nil {
		return nil, err
	}
	return New(dir), nil
}

func (b *Bus) SockPath() string { return b.socket.path }
func (b *Bus) PidPath() string  { return b.pid.path }

func (b *Bus) Listen() (net.Listener, error) { return b.socket.listen() }

// Send writes cmd and returns the daemon's reply line without its newline.
// The context deadline, if any, bounds the whole exchange.
func (b *Bus) Send(ctx context.Context, cmd byte) (string, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "unix", b.socket.path)
	if err != nil {
		return "", err
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.SetDeadline(deadline)
	}

	if _, err := c.Write([]byte{cmd, '\n'}); err != nil {
		return "", err
	}

	resp, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(resp, "\n"), nil
}

func (b *Bus) CheckExistingDaemon() error { return b.pid.checkExisting() }
func (b *Bus) CreatePidFile() error       { return b.pid.create() }
func (b *Bus) RemovePidFile() error       { return b.pid.remove() }

// ~/.cache/voxbridge/control.sock
func SockPath() (string, error) {
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// ~/.cache/voxbridge/voxbridge.pid
func PidPath() (string, error) {
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

func defaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName), nil
}

type socketManager struct {
	path string
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.Dial("unix", s.path)
}

type pidManager struct {
	path string
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	err := os.Remove(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// checkExisting fails if the pid file names a live process. Stale or
// unreadable pid files are removed.
func (p *pidManager) checkExisting() error {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || !p.isProcessAlive(pid) {
		return p.remove()
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 only checks existence; EPERM still means the process exists.
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
