package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/servicekit-go/servicekit/notification"
	"github.com/servicekit-go/servicekit/server"
	"github.com/servicekit-go/servicekit/sqlerr"
)

const txCtxKey ctxKey = "servicekit.tx"

// alertTimeout bounds the notification fan-out triggered by a failed
// transaction.
const alertTimeout = 10 * time.Second

// txBeginner starts a database transaction. Satisfied by
// *database.Database.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TransactionMiddleware gives each request its own database
// transaction and monitors its outcome.
//
// The transaction is opened before the handler runs and stored in the
// request context (see TxFromContext). When the handler succeeds the
// transaction commits; when it fails or panics the transaction rolls
// back. Database failures produce a structured db_transaction_error
// log, a CRITICAL alert through the notifier, and a sanitized error
// for the client. Every request logs its transaction timing.
type TransactionMiddleware struct {
	server *server.Server
	db     txBeginner
}

// NewTransactionMiddleware constructs a TransactionMiddleware.
func NewTransactionMiddleware(s *server.Server) *TransactionMiddleware {
	return &TransactionMiddleware{
		server: s,
		db:     s.DB,
	}
}

// WithTransaction returns the Echo middleware.
func (tm *TransactionMiddleware) WithTransaction() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			logger := GetLogger(c)

			defer func() {
				logger.Info().
					Str("event", "db_transaction_complete").
					Str("path", c.Request().URL.Path).
					Dur("duration", time.Since(start)).
					Msg("request transaction finished")
			}()

			ctx := c.Request().Context()

			tx, err := tm.db.Begin(ctx)
			if err != nil {
				tm.reportFailure(c, "begin", err)
				return sqlerr.HandleError(err)
			}

			// Rollback after a successful commit is a no-op error
			// (ErrTxClosed); deferring it covers both handler errors
			// and panics unwinding through this middleware.
			defer func() {
				if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
					logger.Error().Err(rbErr).Msg("failed to roll back transaction")
				}
			}()

			c.SetRequest(c.Request().WithContext(context.WithValue(ctx, txCtxKey, tx)))

			if err := next(c); err != nil {
				if sqlerr.IsDatabaseError(err) {
					tm.reportFailure(c, "handler", err)
					return sqlerr.HandleError(err)
				}
				return err
			}

			if err := tx.Commit(ctx); err != nil {
				tm.reportFailure(c, "commit", err)
				return sqlerr.HandleError(err)
			}

			return nil
		}
	}
}

// TxFromContext retrieves the request's transaction. Repository code
// running under WithTransaction should prefer it over the pool so its
// work joins the request's transaction scope.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txCtxKey).(pgx.Tx)
	return tx, ok
}

// reportFailure emits the structured transaction-error log and fires a
// CRITICAL alert. The alert runs detached from the request context so
// a slow notification channel never delays the error response.
func (tm *TransactionMiddleware) reportFailure(c echo.Context, stage string, err error) {
	path := c.Request().URL.Path

	GetLogger(c).Error().
		Str("event", "db_transaction_error").
		Str("stage", stage).
		Str("path", path).
		Str("request_id", GetRequestID(c)).
		Err(err).
		Msg("database transaction failed")

	if tm.server.Notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()

		alertErr := tm.server.Notifier.Send(ctx,
			"Database transaction failure",
			fmt.Sprintf("transaction %s failed on %s: %v", stage, path, err),
			notification.SeverityCritical,
		)
		if alertErr != nil {
			tm.server.Logger.Error().Err(alertErr).Msg("failed to send transaction failure alert")
		}
	}()
}
