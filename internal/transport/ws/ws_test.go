package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

type sinkMessage struct {
	messageType int
	data        []byte
	closeCode   int
}

// newSinkServer runs a consumer endpoint that records everything it receives,
// including the final close code.
func newSinkServer(t *testing.T) (*httptest.Server, chan sinkMessage) {
	t.Helper()
	received := make(chan sinkMessage, 16)
	up := websocket.Upgrader{Subprotocols: []string{Subprotocol}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				code := websocket.CloseAbnormalClosure
				if ce, ok := err.(*websocket.CloseError); ok {
					code = ce.Code
				}
				received <- sinkMessage{closeCode: code}
				return
			}
			received <- sinkMessage{messageType: mt, data: data}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func recv(t *testing.T, ch chan sinkMessage) sinkMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("consumer received nothing")
		return sinkMessage{}
	}
}

func TestConnectWriteAndClose(t *testing.T) {
	srv, received := newSinkServer(t)

	conn, err := NewDialer().Connect(wsURL(srv)+"/fork", nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteFrame([]byte{1, 2, 3, 4}))
	m := recv(t, received)
	require.Equal(t, websocket.BinaryMessage, m.messageType)
	require.Equal(t, []byte{1, 2, 3, 4}, m.data)

	require.NoError(t, conn.Close(core.CloseGoingDown))
	m = recv(t, received)
	require.Equal(t, core.CloseGoingDown, m.closeCode)
}

func TestConnectRejectsBadEndpoints(t *testing.T) {
	d := NewDialer()
	for _, endpoint := range []string{
		"",
		"http://example.com/fork",
		"ws://",
		"not a url at\nall",
	} {
		_, err := d.Connect(endpoint, nil)
		require.ErrorIs(t, err, ErrBadEndpoint, "endpoint %q", endpoint)
	}
}

func TestConnectClassifiesNegotiationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewDialer().Connect(wsURL(srv), nil)
	require.ErrorIs(t, err, ErrNegotiation)
	require.Contains(t, err.Error(), "404")
}

func TestConnectClassifiesHandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // nothing listening anymore

	_, err := NewDialer().Connect(wsURL(srv), nil)
	require.ErrorIs(t, err, ErrHandshake)
}

func TestCipherIDs(t *testing.T) {
	ids, err := cipherIDs("TLS_AES_128_GCM_SHA256:TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256")
	require.NoError(t, err)
	require.Len(t, ids, 2)

	_, err = cipherIDs("NOT_A_CIPHER")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	ids, err = cipherIDs("")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestTLSConfigWithoutCASkipsVerification(t *testing.T) {
	cfg, err := tlsConfig(&domain.TLSBundle{})
	require.NoError(t, err)
	require.True(t, cfg.InsecureSkipVerify)
}

func TestTLSConfigRejectsMissingCertFile(t *testing.T) {
	_, err := tlsConfig(&domain.TLSBundle{CertFile: "/does/not/exist.pem", KeyFile: "/does/not/exist.key"})
	require.Error(t, err)
}
