// Package inbox keeps unread support-message counts fresh for connected
// viewers by polling the backend on their behalf.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "crew-portal/internal/common/errors"
	backend "crew-portal/internal/common/http"
	"crew-portal/internal/common/logger"
	"crew-portal/internal/common/metrics"
	"crew-portal/internal/models"
)

const (
	DefaultInterval = 10 * time.Second
	cachePrefix     = "portal:inbox:unread:"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("inbox poller closed")

// Counter fetches the unread count for the viewer whose token is in ctx.
type Counter interface {
	UnreadCount(ctx context.Context, role string) (int, error)
}

// Poller runs one poll loop per watched viewer and fans the count out to
// every watcher of that viewer.
type Poller struct {
	counter  Counter
	rdb      redis.Cmdable
	interval time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	loops  map[string]*loop
	closed bool
}

type loop struct {
	viewer models.Viewer
	// watchers maps each subscription to the backend token of its session.
	watchers map[chan int]string
	cancel   context.CancelFunc
	done     chan struct{}
	last     int
	hasLast  bool
}

func NewPoller(counter Counter, rdb redis.Cmdable, interval time.Duration, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		counter:  counter,
		rdb:      rdb,
		interval: interval,
		logger:   logger.Component(log, "inbox-poller"),
		loops:    map[string]*loop{},
	}
}

func cacheKey(v models.Viewer) string {
	return cachePrefix + v.Role + ":" + string(v.UserID)
}

// Watch subscribes to viewer's unread count until ctx is done. The channel
// receives the current count first and then every change; it is closed when
// the subscription ends.
func (p *Poller) Watch(ctx context.Context, viewer models.Viewer) (<-chan int, error) {
	if viewer.Role == "" || viewer.UserID.Empty() {
		return nil, fmt.Errorf("inbox: viewer needs a role and user id")
	}

	ch := make(chan int, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	key := viewer.Key()
	l, ok := p.loops[key]
	if !ok {
		loopCtx, cancel := context.WithCancel(context.Background())
		l = &loop{
			viewer:   viewer,
			watchers: map[chan int]string{},
			cancel:   cancel,
			done:     make(chan struct{}),
		}
		p.loops[key] = l
		metrics.InboxWatchers.WithLabelValues(viewer.Role).Inc()
		go p.run(loopCtx, l)
	} else if viewer.Token != "" {
		// A fresher login for the same viewer replaces the polling token.
		l.viewer.Token = viewer.Token
	}
	l.watchers[ch] = viewer.Token
	if l.hasLast {
		ch <- l.last
	}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.unwatch(key, ch)
	}()

	return ch, nil
}

func (p *Poller) unwatch(key string, ch chan int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.loops[key]
	if !ok {
		return
	}
	token, ok := l.watchers[ch]
	if !ok {
		return
	}
	delete(l.watchers, ch)
	close(ch)

	if len(l.watchers) == 0 {
		l.cancel()
		delete(p.loops, key)
		metrics.InboxWatchers.WithLabelValues(l.viewer.Role).Dec()
		return
	}
	if token == l.viewer.Token {
		// The polling session left; keep polling as one that is still here.
		l.viewer.Token = l.liveToken(map[string]bool{token: true}, token)
	}
}

// liveToken returns a watcher token not in rejected, or fallback.
func (l *loop) liveToken(rejected map[string]bool, fallback string) string {
	for _, tok := range l.watchers {
		if tok != "" && !rejected[tok] {
			return tok
		}
	}
	return fallback
}

func (p *Poller) run(ctx context.Context, l *loop) {
	defer close(l.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, l)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, l)
		}
	}
}

// fetch asks the backend for the count. A token the backend rejects is
// swapped for another watcher's token, each tried at most once.
func (p *Poller) fetch(ctx context.Context, l *loop) (models.Viewer, int, error) {
	rejected := map[string]bool{}
	for {
		p.mu.Lock()
		viewer := l.viewer
		p.mu.Unlock()

		count, err := p.counter.UnreadCount(backend.WithToken(ctx, viewer.Token), viewer.Role)
		if err == nil || !apperrors.Is(err, apperrors.ErrCodeUnauthorized) || ctx.Err() != nil {
			return viewer, count, err
		}

		rejected[viewer.Token] = true
		p.mu.Lock()
		next := l.liveToken(rejected, "")
		if next != "" {
			l.viewer.Token = next
		}
		p.mu.Unlock()
		if next == "" {
			return viewer, count, err
		}
		p.logger.Info("polling token rejected, switching session", map[string]interface{}{
			"viewer": viewer.Key(),
		})
	}
}

func (p *Poller) poll(ctx context.Context, l *loop) {
	viewer, count, err := p.fetch(ctx, l)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.InboxPollsTotal.WithLabelValues(viewer.Role, "error").Inc()
		p.logger.Warn("unread count poll failed", map[string]interface{}{
			"viewer": viewer.Key(),
			"error":  err,
		})
		return
	}
	metrics.InboxPollsTotal.WithLabelValues(viewer.Role, "success").Inc()

	if err := p.rdb.Set(ctx, cacheKey(viewer), count, 3*p.interval).Err(); err != nil && ctx.Err() == nil {
		p.logger.Warn("failed to cache unread count", map[string]interface{}{
			"viewer": viewer.Key(),
			"error":  err,
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if l.hasLast && l.last == count {
		return
	}
	l.last = count
	l.hasLast = true
	for ch := range l.watchers {
		offer(ch, count)
	}
}

// offer delivers v without blocking, replacing a value the watcher has not
// read yet.
func offer(ch chan int, v int) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Unread returns the cached count for viewer, fetching it once directly when
// nothing is cached.
func (p *Poller) Unread(ctx context.Context, viewer models.Viewer) (int, error) {
	raw, err := p.rdb.Get(ctx, cacheKey(viewer)).Result()
	if err == nil {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			return n, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		p.logger.Warn("unread cache read failed", map[string]interface{}{
			"viewer": viewer.Key(),
			"error":  err,
		})
	}

	count, err := p.counter.UnreadCount(backend.WithToken(ctx, viewer.Token), viewer.Role)
	if err != nil {
		return 0, err
	}
	_ = p.rdb.Set(ctx, cacheKey(viewer), count, 3*p.interval).Err()
	return count, nil
}

// Watching reports how many viewers currently have a poll loop.
func (p *Poller) Watching() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.loops)
}

// Close stops every loop and closes every watcher channel.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	loops := p.loops
	p.loops = map[string]*loop{}
	for _, l := range loops {
		l.cancel()
		for ch := range l.watchers {
			close(ch)
		}
		l.watchers = nil
		metrics.InboxWatchers.WithLabelValues(l.viewer.Role).Dec()
	}
	p.mu.Unlock()

	for _, l := range loops {
		<-l.done
	}
}
