// Package ws carries fork audio to the remote consumer over a client
// WebSocket connection.
package ws

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

// Subprotocol requested on every connection, matching what the reference
// deployment's consumers accept.
const Subprotocol = "echo"

// Connect failures, classified.
var (
	ErrBadEndpoint = errors.New("bad endpoint")
	ErrResolve     = errors.New("endpoint resolution failed")
	ErrNegotiation = errors.New("upgrade negotiation failed")
	ErrHandshake   = errors.New("handshake failed")
)

// Dialer implements core.Transport.
type Dialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func NewDialer() *Dialer {
	return &Dialer{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

func (d *Dialer) Connect(endpoint string, sec *domain.TLSBundle) (core.Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadEndpoint, endpoint)
	}

	wd := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		Subprotocols:     []string{Subprotocol},
	}
	if sec != nil {
		cfg, err := tlsConfig(sec)
		if err != nil {
			return nil, err
		}
		wd.TLSClientConfig = cfg
	}

	conn, resp, err := wd.Dial(u.String(), nil)
	if err != nil {
		var dnsErr *net.DNSError
		switch {
		case errors.As(err, &dnsErr):
			return nil, fmt.Errorf("%w: %s: %v", ErrResolve, u.Host, err)
		case errors.Is(err, websocket.ErrBadHandshake):
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			return nil, fmt.Errorf("%w: %s returned status %d", ErrNegotiation, endpoint, status)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrHandshake, endpoint, err)
	}

	return &Conn{ws: conn, writeTimeout: d.WriteTimeout}, nil
}

// Conn is one connected stream. The write lock serializes frame writes and
// the closing control message.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// WriteFrame sends one binary frame. gorilla writes the whole message or
// fails, so partial sends never reach the wire.
func (c *Conn) WriteFrame(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.BinaryMessage, p)
}

// Close sends a close control frame with the given reason code, then drops
// the connection. Errors from a broken peer are ignored.
func (c *Conn) Close(code int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline := time.Now().Add(c.writeTimeout)
	msg := websocket.FormatCloseMessage(code, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
	return c.ws.Close()
}

func tlsConfig(sec *domain.TLSBundle) (*tls.Config, error) {
	cfg := &tls.Config{}

	if sec.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(sec.CertFile, sec.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	switch {
	case sec.CAFile != "":
		pool, err := poolFromFiles(sec.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	case sec.CAPath != "":
		entries, err := os.ReadDir(sec.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA path: %w", err)
		}
		files := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(sec.CAPath, e.Name()))
			}
		}
		pool, err := poolFromFiles(files...)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	default:
		// No CA material configured: skip verification, as the original
		// deployment did.
		cfg.InsecureSkipVerify = true
	}

	if sec.Ciphers != "" {
		ids, err := cipherIDs(sec.Ciphers)
		if err != nil {
			return nil, err
		}
		cfg.CipherSuites = ids
	}

	return cfg, nil
}

func poolFromFiles(files ...string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	for _, f := range files {
		pem, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in CA file %s", f)
		}
	}
	return pool, nil
}

func cipherIDs(list string) ([]uint16, error) {
	byName := map[string]uint16{}
	for _, cs := range tls.CipherSuites() {
		byName[cs.Name] = cs.ID
	}
	for _, cs := range tls.InsecureCipherSuites() {
		byName[cs.Name] = cs.ID
	}
	var ids []uint16
	for _, name := range strings.Split(list, ":") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown cipher %q", domain.ErrInvalidArgument, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
