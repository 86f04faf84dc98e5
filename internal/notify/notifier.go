package notify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dnlkv/fmapbot/core/logger"
	"github.com/dnlkv/fmapbot/core/telegram"
)

const defaultAPIBase = "https://api.telegram.org"

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Options sizes the outbound queue.
type Options struct {
	QueueSize int
	Workers   int
}

type job struct {
	chatID int64
	text   string
}

// Notifier delivers fire-and-forget messages through the Telegram sendMessage
// endpoint. Enqueueing never blocks the caller and never returns an error;
// delivery outcome is logged only.
type Notifier struct {
	client  *resty.Client
	token   string
	adminID int64
	jobs    chan job
	wg      sync.WaitGroup
	dropped atomic.Uint64
	errs    atomic.Uint64

	// mu orders enqueues against Close so no send races the channel close.
	mu     sync.RWMutex
	closed bool
}

// New starts a notifier for the given bot token. adminID may be zero, in
// which case NotifyAdmin is a no-op.
func New(token string, adminID int64, opts Options) *Notifier {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	n := &Notifier{
		client: resty.NewWithClient(telegram.BuildHTTPClient()).
			SetBaseURL(defaultAPIBase),
		token:   token,
		adminID: adminID,
		jobs:    make(chan job, opts.QueueSize),
	}
	n.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go n.worker()
	}
	return n
}

// SetBaseURL overrides the Telegram API base URL; used in tests.
func (n *Notifier) SetBaseURL(base string) {
	n.client.SetBaseURL(strings.TrimRight(base, "/"))
}

// Notify queues a message to chatID. A saturated or closed queue drops the
// message and logs the drop.
func (n *Notifier) Notify(chatID int64, text string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.drop(chatID)
		return
	}
	select {
	case n.jobs <- job{chatID: chatID, text: text}:
	default:
		n.drop(chatID)
	}
}

// NotifyAdmin queues a service notice to the configured admin chat.
func (n *Notifier) NotifyAdmin(text string) {
	if n.adminID == 0 {
		return
	}
	n.Notify(n.adminID, text)
}

// Dropped returns the number of messages rejected by a full or closed queue.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}

// ErrorCount returns the number of messages that failed to deliver.
func (n *Notifier) ErrorCount() uint64 {
	return n.errs.Load()
}

// Close stops accepting messages and waits for queued ones to drain.
// Safe to call more than once and concurrently with Notify.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.jobs)
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *Notifier) drop(chatID int64) {
	n.dropped.Add(1)
	logger.LogEvent(context.Background(), logger.SVCNotify, slog.LevelWarn, "notify.dropped",
		slog.Int64("chat_id", chatID),
	)
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for j := range n.jobs {
		n.send(j)
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (n *Notifier) send(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	var envelope apiResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParam("chat_id", strconv.FormatInt(j.chatID, 10)).
		SetQueryParam("text", j.text).
		SetResult(&envelope).
		SetError(&envelope).
		Get(fmt.Sprintf("/bot%s/sendMessage", n.token))

	switch {
	case err != nil:
		n.fail(ctx, j, sanitizeError(err), start)
	case !resp.IsSuccess() || !envelope.OK:
		reason := envelope.Description
		if reason == "" {
			reason = resp.Status()
		}
		n.fail(ctx, j, reason, start)
	default:
		logger.LogEvent(ctx, logger.SVCNotify, slog.LevelDebug, "notify.sent",
			slog.Int64("chat_id", j.chatID),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}

func (n *Notifier) fail(ctx context.Context, j job, reason string, start time.Time) {
	n.errs.Add(1)
	logger.LogEvent(ctx, logger.SVCNotify, slog.LevelError, "notify.fail",
		slog.Int64("chat_id", j.chatID),
		slog.String("err", reason),
		slog.Duration("duration", logger.Took(start)),
	)
}

// sanitizeError keeps bot tokens out of log lines.
func sanitizeError(err error) string {
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
