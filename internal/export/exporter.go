package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ContentType of export objects.
const ContentType = "text/csv"

// TransactionLister is the read side of a transaction store.
type TransactionLister interface {
	ListTransactions(ctx context.Context) ([]transactions.Transaction, error)
}

// Result describes a written export.
type Result struct {
	URI   string          `json:"uri"`
	Rows  int             `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// Exporter writes filtered, sorted views to a bucket.
type Exporter struct {
	source TransactionLister
	store  ObjectStore
	bucket string
	log    zerolog.Logger
	newID  func() string
}

// NewExporter creates an Exporter writing to bucket.
func NewExporter(source TransactionLister, store ObjectStore, bucket string, log zerolog.Logger) *Exporter {
	return &Exporter{
		source: source,
		store:  store,
		bucket: bucket,
		log:    log.With().Str("component", "exporter").Logger(),
		newID:  func() string { return uuid.New().String() },
	}
}

// ObjectName is the object path of an export created at now.
func ObjectName(now time.Time, id string) string {
	return fmt.Sprintf("exports/%s/%s.csv", now.Format("2006/01/02"), id)
}

// Export loads all transactions, applies criteria and sort, and uploads the
// result as CSV.
func (e *Exporter) Export(ctx context.Context, criteria transactions.Criteria, sort transactions.SortState, now time.Time) (*Result, error) {
	if e.bucket == "" {
		return nil, fmt.Errorf("Export: no exports bucket configured")
	}
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("Export: %w", err)
	}

	all, err := e.source.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("Export: list transactions: %w", err)
	}
	view := sort.Apply(transactions.Filter(all, criteria, now))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, view); err != nil {
		return nil, fmt.Errorf("Export: %w", err)
	}

	object := ObjectName(now, e.newID())
	if err := e.store.WriteObject(ctx, e.bucket, object, ContentType, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("Export: upload: %w", err)
	}

	res := &Result{
		URI:   URI(e.bucket, object),
		Rows:  len(view),
		Total: transactions.Sum(view),
	}
	e.log.Info().Str("uri", res.URI).Int("rows", res.Rows).Msg("Export written")
	return res, nil
}
