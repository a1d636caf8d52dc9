package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Action names recorded by the audit log. Only administrative actions are
// recorded — secret creation and retrieval are never written here.
const (
	ActionAdminTokenIssued = "admin_token_issued"
	ActionAdminTokenReset  = "admin_token_reset"
	ActionUserTokenReset   = "user_token_reset"
	ActionAdminBootstrap   = "admin_token_bootstrap"
)

// Entry represents a single audit log entry to be written. Detail carries
// only sizes, TTLs, and counts — never ciphertext, raw tokens, or token hashes.
type Entry struct {
	Action    string
	IPAddress *netip.Addr
	Detail    json.RawMessage
}

const (
	bufferSize = 256
	flushBatch = 32
)

// Writer is an async, buffered audit log writer. Entries are sent to an
// internal channel and flushed by a background goroutine on a ticker.
type Writer struct {
	pool          *pgxpool.Pool
	logger        *slog.Logger
	flushInterval time.Duration
	entries       chan Entry
	wg            sync.WaitGroup
}

// NewWriter creates an audit Writer. Call Start to begin processing entries.
// A nil pool is valid: it produces a writer whose flushes are no-ops, used
// when the audit log is disabled (HAKANAI_AUDIT_DSN unset).
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger, flushInterval time.Duration) *Writer {
	return &Writer{
		pool:          pool,
		logger:        logger,
		flushInterval: flushInterval,
		entries:       make(chan Entry, bufferSize),
	}
}

// Start begins the background goroutine that flushes audit entries to the database
// and returns immediately. The goroutine exits, after flushing pending entries,
// when the context is cancelled or Close is called.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues an audit entry for async writing. It never blocks the caller;
// if the buffer is full the entry is dropped and a warning is logged. A no-op
// when the writer was constructed with a nil pool.
func (w *Writer) Log(entry Entry) {
	if w.pool == nil {
		return
	}
	select {
	case w.entries <- entry:
	default:
		w.logger.Warn("audit log buffer full, dropping entry", "action", entry.Action)
	}
}

// LogFromRequest is a convenience method that extracts the client IP from the
// request, then enqueues the entry.
func (w *Writer) LogFromRequest(r *http.Request, action string, detail json.RawMessage) {
	entry := Entry{Action: action, Detail: detail}
	ip := clientIP(r)
	if ip.IsValid() {
		entry.IPAddress = &ip
	}
	w.Log(entry)
}

// run is the background loop that drains the entries channel.
func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

const insertEntrySQL = `INSERT INTO hakanai_audit_log (occurred_at, action, actor_ip, detail) VALUES ($1, $2, $3, $4)`

// flush writes a batch of entries to the database with raw parameterized SQL —
// there is no code-generated query layer here, the schema is a single table.
func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	for _, e := range entries {
		var ip *string
		if e.IPAddress != nil {
			s := e.IPAddress.String()
			ip = &s
		}
		if _, err := w.pool.Exec(ctx, insertEntrySQL, now, e.Action, ip, e.Detail); err != nil {
			w.logger.Error("writing audit log entry", "error", err, "action", e.Action)
		}
	}
}

// clientIP extracts the client IP address from the request, preferring
// X-Forwarded-For and X-Real-IP headers over RemoteAddr.
func clientIP(r *http.Request) netip.Addr {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		if addr, err := netip.ParseAddr(strings.TrimSpace(parts[0])); err == nil {
			return addr
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, _ := netip.ParseAddr(host)
	return addr
}
