package ingest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

type hubFixture struct {
	hub   *Hub
	srv   *httptest.Server
	swept chan string
}

func newHubFixture(t *testing.T, maxHooks int) *hubFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	swept := make(chan string, 4)
	hub := NewHub(func(name string) { swept <- name }, 4, maxHooks, 4)

	r := gin.New()
	r.GET("/api/ws/legs/:name", hub.HandleFeed)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &hubFixture{hub: hub, srv: srv, swept: swept}
}

func (f *hubFixture) dialFeed(t *testing.T, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/ws/legs/" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *hubFixture) waitForLeg(t *testing.T, name string) core.CallLeg {
	t.Helper()
	var leg core.CallLeg
	require.Eventually(t, func() bool {
		var ok bool
		leg, ok = f.hub.Lookup(name)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	return leg
}

func TestFeedCreatesLegAndRelaysFrames(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	att, err := leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)

	require.NoError(t, feeder.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3, 4}))
	frame, ok := att.ReadFrame(2 * time.Second)
	require.True(t, ok)
	require.Equal(t, core.Frame{1, 2, 3, 4}, frame)
}

func TestHooksGetIndependentCopies(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	att1, err := leg.Attach(domain.DirectionIn)
	require.NoError(t, err)
	att2, err := leg.Attach(domain.DirectionOut)
	require.NoError(t, err)

	require.NoError(t, feeder.WriteMessage(websocket.BinaryMessage, []byte{9, 9, 9, 9}))

	f1, ok := att1.ReadFrame(2 * time.Second)
	require.True(t, ok)
	f2, ok := att2.ReadFrame(2 * time.Second)
	require.True(t, ok)

	// One fork silencing its copy must not bleed into the other.
	f1.Silence()
	require.Equal(t, core.Frame{9, 9, 9, 9}, f2)
}

func TestAttachHonorsHookLimit(t *testing.T) {
	f := newHubFixture(t, 2)
	f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	_, err := leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)
	att, err := leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)
	_, err = leg.Attach(domain.DirectionBoth)
	require.Error(t, err)

	// Detaching frees the slot.
	att.Detach()
	_, err = leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)
}

func TestDuplicateLegRefused(t *testing.T) {
	f := newHubFixture(t, 2)
	f.dialFeed(t, "leg-a")
	f.waitForLeg(t, "leg-a")

	u := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/ws/legs/leg-a"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCuesReachTheFeeder(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	leg.PlayCue("beep")

	require.NoError(t, feeder.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]string
	require.NoError(t, feeder.ReadJSON(&msg))
	require.Equal(t, "beep", msg["cue"])
}

func TestPeriodicCueStops(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	id, err := leg.StartPeriodicCue("beep", 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, feeder.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]string
	require.NoError(t, feeder.ReadJSON(&msg))
	require.Equal(t, "beep", msg["cue"])

	leg.StopPeriodicCue(id)
	leg.StopPeriodicCue(id) // double stop is harmless

	// Drain anything in flight, then expect silence.
	time.Sleep(50 * time.Millisecond)
	for {
		require.NoError(t, feeder.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
		if _, _, err := feeder.ReadMessage(); err != nil {
			break
		}
	}
}

func TestFeederDisconnectSweepsLeg(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	att, err := leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)

	// A blocked reader must be woken by the teardown.
	var wg sync.WaitGroup
	wg.Add(1)
	woken := make(chan struct{})
	go func() {
		defer wg.Done()
		_, ok := att.ReadFrame(5 * time.Second)
		if !ok {
			close(woken)
		}
	}()

	feeder.Close()

	select {
	case name := <-f.swept:
		require.Equal(t, "leg-a", name)
	case <-time.After(2 * time.Second):
		t.Fatal("teardown sweep did not run")
	}
	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reader was not woken")
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		_, ok := f.hub.Lookup("leg-a")
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	// The gone leg refuses new work.
	_, err = leg.Attach(domain.DirectionBoth)
	require.ErrorIs(t, err, errLegGone)
	_, err = leg.StartPeriodicCue("beep", time.Second)
	require.ErrorIs(t, err, errLegGone)
}

func TestNonBinaryMessagesIgnored(t *testing.T) {
	f := newHubFixture(t, 2)
	feeder := f.dialFeed(t, "leg-a")
	leg := f.waitForLeg(t, "leg-a")

	att, err := leg.Attach(domain.DirectionBoth)
	require.NoError(t, err)

	require.NoError(t, feeder.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`)))
	require.NoError(t, feeder.WriteMessage(websocket.BinaryMessage, []byte{5, 6, 7, 8}))

	frame, ok := att.ReadFrame(2 * time.Second)
	require.True(t, ok)
	require.Equal(t, core.Frame{5, 6, 7, 8}, frame)
}
