package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/belldesk-backend/pkg/config"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery desk events table is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// Client streams into the desk_events table of the audit dataset.
type Client struct {
	bq     *bigquery.Client
	events *bigquery.Table
}

// NewClient opens BigQuery and fails when the desk events table is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	dataset := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.DeskEventsTable)
	switch {
	case project == "":
		return nil, errProjectIDRequired
	case dataset == "":
		return nil, errDatasetRequired
	case table == "":
		return nil, errTableNameRequired
	}

	bq, err := bigquery.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{bq: bq, events: bq.Dataset(dataset).Table(table)}
	if err := c.Ping(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": dataset, "table": table}), "bigquery client initialized")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// DeskEventsTable returns the table audit rows are streamed into.
func (c *Client) DeskEventsTable() string {
	if c == nil || c.events == nil {
		return ""
	}
	return c.events.TableID
}

func (c *Client) metadata(ctx context.Context) (*bigquery.TableMetadata, error) {
	if c == nil || c.events == nil {
		return nil, errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	md, err := c.events.Metadata(ctx)
	switch {
	case err == nil:
		return md, nil
	case isNotFound(err):
		return nil, fmt.Errorf("table %s.%s does not exist", c.events.DatasetID, c.events.TableID)
	default:
		return nil, fmt.Errorf("checking table %s.%s: %w", c.events.DatasetID, c.events.TableID, err)
	}
}

// Ping verifies the desk events table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.metadata(ctx)
	return err
}

// RequireColumns fails when the desk events table lacks any of cols.
func (c *Client) RequireColumns(ctx context.Context, cols []string) error {
	md, err := c.metadata(ctx)
	if err != nil {
		return err
	}
	if missing := missingColumns(md.Schema, cols); len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns %s", c.events.TableID, strings.Join(missing, ", "))
	}
	return nil
}

func missingColumns(schema bigquery.Schema, cols []string) []string {
	have := make(map[string]struct{}, len(schema))
	for _, f := range schema {
		have[strings.ToLower(f.Name)] = struct{}{}
	}
	var missing []string
	for _, col := range cols {
		if _, ok := have[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// InsertRows streams rows into table, which must be the desk events table.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.events == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(table) != c.events.TableID {
		return fmt.Errorf("table %q is not the desk events table %q", table, c.events.TableID)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := c.events.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("inserting %d rows into %q: %w", len(rows), table, err)
	}
	return nil
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
