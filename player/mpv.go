package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/where"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV drives one mpv process through its JSON-IPC socket.
type MPV struct {
	binary     string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when the mpv process exits
	mu         sync.Mutex    // serializes IPC commands
	closeOnce  sync.Once
}

// NewMPV creates an MPV handle using the given executable ("mpv" when empty). Nothing is started yet.
func NewMPV(binary string) *MPV {
	if binary == "" {
		binary = "mpv"
	}
	return &MPV{
		binary: binary,
		exited: make(chan struct{}),
	}
}

// Start launches mpv for target, starting playback at startAt seconds.
// It returns once the IPC socket accepts connections.
func (m *MPV) Start(target, title string, startAt float64) error {
	safeURL, err := sanitizeMediaTarget(target)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if _, err := exec.LookPath(m.binary); err != nil {
		return fmt.Errorf("find %s: %w", m.binary, err)
	}

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes))

	m.cmd = exec.Command(m.binary, buildArgs(m.socketPath, sanitizeTitle(title), safeURL, startAt)...)
	m.cmd.SysProcAttr = detachedProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killGroup(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	return nil
}

// buildArgs passes only what the tracker depends on and leaves the rest to the user's mpv.conf.
// keep-open makes mpv stop on the last frame so eof-reached is observable.
func buildArgs(socketPath, title, target string, startAt float64) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socketPath,
		"--force-media-title=" + title,
		"--title=" + title,
		"--force-window=yes",
		"--keep-open=yes",
	}
	if startAt > 0 {
		args = append(args, "--start="+strconv.FormatFloat(startAt, 'f', 3, 64))
	}
	return append(args, "--", target)
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Close asks mpv to quit, kills it if it does not, and removes the socket. Safe to call more than once.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		if m.cmd == nil {
			return
		}

		_, _ = m.sendCommand([]interface{}{"quit"})

		select {
		case <-m.exited:
		case <-time.After(quitTimeout):
			_ = killGroup(m.cmd)
		}

		_ = os.Remove(m.socketPath)
	})
	return nil
}

// sanitizeMediaTarget validates that a media reference is safe to hand to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
