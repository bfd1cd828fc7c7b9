package viewbridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

type WatchState string

const (
	WatchDisconnected WatchState = "disconnected"
	WatchConnecting   WatchState = "connecting"
	WatchConnected    WatchState = "connected"
	WatchReconnecting WatchState = "reconnecting"
	WatchFailed       WatchState = "failed"
)

var errWatcherClosed = errors.New("watcher closed")

type StateCallback func(st *battledto.State)

type ConnCallback func(state WatchState)

// Watcher follows a feed and reconnects with backoff when it drops.
type Watcher struct {
	feedURL string

	mu     sync.Mutex
	conn   *websocket.Conn
	state  WatchState
	onMsg  StateCallback
	onConn ConnCallback

	maxReconnectAttempts int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewWatcher(feedURL string, maxReconnectAttempts int, onMsg StateCallback) *Watcher {
	return &Watcher{
		feedURL:              feedURL,
		state:                WatchDisconnected,
		onMsg:                onMsg,
		maxReconnectAttempts: maxReconnectAttempts,
		stopCh:               make(chan struct{}),
	}
}

// OnConnState registers a connection state callback. Call before Connect.
func (w *Watcher) OnConnState(cb ConnCallback) { w.onConn = cb }

func (w *Watcher) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.state == WatchConnected || w.state == WatchConnecting {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	w.rootCtx, w.rootCancel = context.WithCancel(context.Background())
	w.setState(WatchConnecting)

	conn, err := w.dial(ctx)
	if err != nil {
		w.setState(WatchFailed)
		w.scheduleReconnect()
		return err
	}
	if !w.attach(conn) {
		return errWatcherClosed
	}
	return nil
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, w.feedURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	return conn, err
}

// attach hands conn to a listener unless Close already ran, in which
// case the conn is dropped. wg.Add happens under mu so Close never waits
// on a counter that is still growing.
func (w *Watcher) attach(conn *websocket.Conn) bool {
	w.mu.Lock()
	if w.isStopping() {
		w.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return false
	}
	w.conn = conn
	w.state = WatchConnected
	cb := w.onConn
	w.wg.Add(1)
	w.mu.Unlock()
	if cb != nil {
		cb(WatchConnected)
	}
	go w.listen(conn)
	return true
}

func (w *Watcher) listen(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		var st battledto.State
		if err := wsjson.Read(w.rootCtx, conn, &st); err != nil {
			if w.isStopping() {
				return
			}
			w.setState(WatchDisconnected)
			_ = conn.Close(websocket.StatusGoingAway, "reconnect")
			w.scheduleReconnect()
			return
		}
		if w.onMsg != nil {
			w.onMsg(&st)
		}
	}
}

func (w *Watcher) scheduleReconnect() {
	if w.maxReconnectAttempts <= 0 {
		return
	}
	w.mu.Lock()
	if w.isStopping() {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	w.setState(WatchReconnecting)

	go func() {
		defer w.wg.Done()
		for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
			select {
			case <-w.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}
			conn, err := w.dial(w.rootCtx)
			if err != nil {
				continue
			}
			w.attach(conn)
			return
		}
		if !w.isStopping() {
			w.setState(WatchFailed)
		}
	}()
}

func (w *Watcher) setState(state WatchState) {
	w.mu.Lock()
	w.state = state
	cb := w.onConn
	w.mu.Unlock()
	if cb != nil {
		cb(state)
	}
}

func (w *Watcher) Close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.mu.Lock()
	if w.conn != nil {
		_ = w.conn.Close(websocket.StatusNormalClosure, "close")
		w.conn = nil
	}
	w.state = WatchDisconnected
	w.mu.Unlock()
	if w.rootCancel != nil {
		w.rootCancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Watcher) isStopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}
