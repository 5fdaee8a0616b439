package logging

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
)

// SyslogOutput sends RFC 3164 messages to a syslog server over TCP or UDP.
// It dials the server directly so it works on every platform.
type SyslogOutput struct {
	mu       sync.Mutex
	conn     net.Conn
	protocol string
	addr     string
	tag      string
	pid      int
}

// Syslog severities (RFC 5424)
const (
	severityCritical = 2
	severityError    = 3
	severityWarning  = 4
	severityInfo     = 6
	severityDebug    = 7
)

// LOG_DAEMON
const facilityDaemon = 3

// NewSyslogOutput connects to host:port. protocol defaults to udp and tag
// to "rmsconsole".
func NewSyslogOutput(protocol, host string, port int, tag string) (*SyslogOutput, error) {
	if host == "" {
		return nil, ErrSyslogHostNotConfigured
	}
	if protocol == "" {
		protocol = "udp"
	}
	if port == 0 {
		port = 514
	}
	if tag == "" {
		tag = "rmsconsole"
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial(protocol, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to syslog: %w", err)
	}

	return &SyslogOutput{
		conn:     conn,
		protocol: protocol,
		addr:     addr,
		tag:      tag,
		pid:      os.Getpid(),
	}, nil
}

func severityOf(level string) int {
	switch level {
	case "trace", "debug":
		return severityDebug
	case "warn", "warning":
		return severityWarning
	case "error":
		return severityError
	case "fatal", "panic":
		return severityCritical
	default:
		return severityInfo
	}
}

// format renders <priority>timestamp tag[pid]: json
func (s *SyslogOutput) format(entry *LogEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	priority := facilityDaemon*8 + severityOf(entry.Level)
	return []byte(fmt.Sprintf("<%d>%s %s[%d]: %s\n",
		priority,
		entry.Timestamp.Format("Jan _2 15:04:05"),
		s.tag,
		s.pid,
		data,
	)), nil
}

// Write sends one entry, redialing once if the connection dropped
func (s *SyslogOutput) Write(entry *LogEntry) error {
	msg, err := s.format(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrOutputClosed
	}

	if _, err := s.conn.Write(msg); err == nil {
		return nil
	}

	s.conn.Close()
	conn, err := net.Dial(s.protocol, s.addr)
	if err != nil {
		s.conn = nil
		return fmt.Errorf("failed to reconnect to syslog: %w", err)
	}
	s.conn = conn

	if _, err := s.conn.Write(msg); err != nil {
		return fmt.Errorf("failed to write to syslog after reconnect: %w", err)
	}
	return nil
}

// Close closes the syslog connection
func (s *SyslogOutput) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
