package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/belldesk-backend/internal/audit/types"
	pkgbigquery "github.com/angelmondragon/belldesk-backend/pkg/bigquery"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// ErrRejected marks rows BigQuery refused for a non-transient reason.
// Redelivering the same event cannot succeed.
var ErrRejected = errors.New("desk event row rejected")

// Config controls the desk events writer.
type Config struct {
	Table       string
	RetryPolicy RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter streams one desk event row per call into BigQuery. Nothing
// is kept between calls, so a failed insert is only retried through
// Pub/Sub redelivery of the event that produced it.
type BigQueryWriter struct {
	client tableInserter
	table  string
	retry  RetryPolicy
}

// New creates a writer backed by the shared BigQuery client.
func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return nil, errors.New("desk events table is required")
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = max(defaultMaximumBackoff, retry.InitialBackoff)
	}

	return &BigQueryWriter{client: client, table: table, retry: retry}, nil
}

// Insert writes row, retrying transient failures in place.
func (w *BigQueryWriter) Insert(ctx context.Context, row types.DeskEventRow) error {
	return w.insertWithRetry(ctx, []any{&row})
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return fmt.Errorf("%w: insert %s: %w", ErrRejected, w.table, err)
		}
		attempts++
		if attempts >= w.retry.MaxAttempts {
			return fmt.Errorf("insert %s rows: %w", w.table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

// IsRetryable reports whether a BigQuery insert failure is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !IsRetryable(inner) {
				return false
			}
		}
		return true
	}

	var pme *cbigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !IsRetryable(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
				return true
			}
		}
	}

	return false
}

// EncodeJSON stores a raw payload in a BigQuery JSON column.
func EncodeJSON(payload []byte) cbigquery.NullJSON {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || trimmed == "null" || !json.Valid([]byte(trimmed)) {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: trimmed}
}
