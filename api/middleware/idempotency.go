package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/belldesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/belldesk-backend/pkg/errors"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/belldesk-backend/pkg/redis"
)

const idempotencyHeader = "Idempotency-Key"

const (
	createReplayWindow = 24 * time.Hour
	finalReplayWindow  = 7 * 24 * time.Hour
)

// replayWindow reports how long a desk write stays replayable under the same
// Idempotency-Key. Releases and archive moves settle a bag for good and keep
// their key for a week.
func replayWindow(method, path string) (time.Duration, bool) {
	if method != http.MethodPost {
		return 0, false
	}
	path = strings.TrimSuffix(path, "/")
	switch {
	case path == "/api/luggage", path == "/api/deposit", path == "/api/users", path == "/api/archivio-dedicato":
		return createReplayWindow, true
	case strings.HasPrefix(path, "/api/deposit/release/"):
		return finalReplayWindow, true
	case strings.HasPrefix(path, "/api/luggage/") && strings.HasSuffix(path, "/archive"):
		return finalReplayWindow, true
	}
	return 0, false
}

// storedReply is the desk response kept in Redis for replays.
type storedReply struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

func (s storedReply) writeTo(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set("Idempotent-Replay", "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

// Idempotency replays the first answer for a repeated Idempotency-Key on desk
// creates, releases and archive moves. The key is scoped per operator and path.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// the raw path is used; chi has not resolved the pattern yet
			window, ok := replayWindow(r.Method, r.URL.Path)
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !ok || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bodyHash := hashBody(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			prior, found, err := loadReply(r.Context(), store, key)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotent reply"))
				return
			}
			if found {
				if prior.BodyHash != bodyHash {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different body"))
					return
				}
				prior.writeTo(w)
				return
			}

			rec := &replyRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			// 5xx answers stay retryable under the same key
			if rec.status >= http.StatusInternalServerError {
				return
			}
			saveReply(r.Context(), logg, store, key, storedReply{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
				BodyHash:    bodyHash,
			}, window)
		})
	}
}

// replayScope keeps two operators from colliding on the same client key.
func replayScope(r *http.Request) string {
	return StaffCodeFromContext(r.Context()) + "|" + r.Method + "|" + strings.TrimSuffix(r.URL.Path, "/")
}

func loadReply(ctx context.Context, store pkgredis.IdempotencyStore, key string) (storedReply, bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return storedReply{}, false, nil
	}
	if err != nil {
		return storedReply{}, false, err
	}
	var reply storedReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return storedReply{}, false, err
	}
	return reply, true, nil
}

// saveReply is best effort; the desk write already happened.
func saveReply(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, reply storedReply, window time.Duration) {
	payload, err := json.Marshal(reply)
	if err == nil {
		_, err = store.SetNX(ctx, key, string(payload), window)
	}
	if err != nil && logg != nil {
		logg.Error(logg.WithField(ctx, "idempotency_key", key), "failed to store idempotent reply", err)
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type replyRecorder struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *replyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *replyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *replyRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
