package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/zedmarket-backend/pkg/db/models"
	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
	"github.com/angelmondragon/zedmarket-backend/pkg/reference"
)

const (
	defaultImportGrace = 15 * time.Minute
	importReconcileBatch = 100
)

var errCloneNeverRecorded = errors.New("import confirmed but no outcome was recorded")

type unreconciledImportLister interface {
	ListUnreconciledImports(ctx context.Context, before time.Time, limit int) ([]models.Transaction, error)
}

type missingImportFlagger interface {
	FlagMissing(ctx context.Context, ref string, storeID, supplierProductID uuid.UUID, cause error) (bool, error)
}

type ImportReconcileJobParams struct {
	Logger  *logger.Logger
	Ledger  unreconciledImportLister
	Imports missingImportFlagger
	// Grace is how long a confirmed import may go without an outcome
	// before it is flagged.
	Grace time.Duration
}

// NewImportReconcileJob flags completed imports whose clone step never
// recorded an outcome, typically because the process died mid-delivery.
func NewImportReconcileJob(params ImportReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Imports == nil {
		return nil, fmt.Errorf("import service required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultImportGrace
	}
	return &importReconcileJob{
		logg:    params.Logger,
		ledger:  params.Ledger,
		imports: params.Imports,
		grace:   grace,
		now:     time.Now,
	}, nil
}

type importReconcileJob struct {
	logg    *logger.Logger
	ledger  unreconciledImportLister
	imports missingImportFlagger
	grace   time.Duration
	now     func() time.Time
}

func (j *importReconcileJob) Name() string { return "import-reconcile" }

func (j *importReconcileJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	rows, err := j.ledger.ListUnreconciledImports(ctx, cutoff, importReconcileBatch)
	if err != nil {
		return fmt.Errorf("list unreconciled imports: %w", err)
	}

	var (
		errs    error
		flagged int
		skipped int
	)
	for _, txn := range rows {
		rowCtx := j.logg.WithReference(ctx, txn.Reference)
		storeID, productID, ok := importIDs(txn.Reference)
		if !ok {
			j.logg.Warn(rowCtx, "import transaction has an unroutable reference")
			skipped++
			continue
		}
		wrote, err := j.imports.FlagMissing(rowCtx, txn.Reference, storeID, productID, errCloneNeverRecorded)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flag %s: %w", txn.Reference, err))
			continue
		}
		if wrote {
			flagged++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(rows),
		"flagged": flagged,
		"skipped": skipped,
	})
	j.logg.Info(logCtx, "import reconcile complete")
	return errs
}

func importIDs(raw string) (uuid.UUID, uuid.UUID, bool) {
	ref, err := reference.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	imp, ok := ref.(reference.Import)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	storeID, err := uuid.Parse(imp.StoreID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	productID, err := uuid.Parse(imp.ProductID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return storeID, productID, true
}
