package viewbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/pokemon-chess-battle/internal/obslog"
	"github.com/park285/pokemon-chess-battle/pkg/battledto"
)

const subscriberQueue = 8

type subscriber struct {
	id   int
	send chan *battledto.State
}

// Feed pushes every published state to connected websocket clients.
// It implements arena.Publisher and http.Handler.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	last   *battledto.State

	pingInterval time.Duration
	writeTimeout time.Duration
	log          *zap.Logger
}

func NewFeed() *Feed {
	return &Feed{
		subs:         make(map[int]*subscriber),
		pingInterval: 30 * time.Second,
		writeTimeout: 5 * time.Second,
		log:          obslog.L().Named("feed"),
	}
}

// Publish queues st for every subscriber. A subscriber whose queue is full
// drops its oldest pending state; the newest one always wins.
func (f *Feed) Publish(ctx context.Context, st *battledto.State) {
	if st == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = st
	for _, s := range f.subs {
		select {
		case s.send <- st:
		default:
			select {
			case <-s.send:
			default:
			}
			s.send <- st
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) subscribe() *subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s := &subscriber{id: f.nextID, send: make(chan *battledto.State, subscriberQueue)}
	if f.last != nil {
		s.send <- f.last
	}
	f.subs[s.id] = s
	return s
}

func (f *Feed) unsubscribe(s *subscriber) {
	f.mu.Lock()
	delete(f.subs, s.id)
	f.mu.Unlock()
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		f.log.Warn("feed_accept_error", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	sub := f.subscribe()
	defer f.unsubscribe(sub)
	f.log.Info("feed_subscribe", zap.Int("id", sub.id), zap.String("remote", r.RemoteAddr))

	// 클라이언트 메시지는 읽지 않는다. CloseRead가 close 프레임만 처리
	ctx := conn.CloseRead(r.Context())

	ping := time.NewTicker(f.pingInterval)
	defer ping.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			f.log.Info("feed_unsubscribe", zap.Int("id", sub.id))
			return
		case st := <-sub.send:
			wctx, cancel := context.WithTimeout(ctx, f.writeTimeout)
			err := wsjson.Write(wctx, conn, st)
			cancel()
			if err != nil {
				f.log.Info("feed_write_error", zap.Int("id", sub.id), zap.Error(err))
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					_ = conn.Close(websocket.StatusGoingAway, "ping failure")
					return
				}
				continue
			}
			failures = 0
		}
	}
}

// Handler mounts the feed at /ws.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", f)
	return mux
}
