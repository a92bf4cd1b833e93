package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit-go/servicekit/config"
	"github.com/servicekit-go/servicekit/errs"
	"github.com/servicekit-go/servicekit/notification"
	"github.com/servicekit-go/servicekit/server"
)

// fakeTx records commit/rollback calls; the query methods are never
// reached by the middleware.
type fakeTx struct {
	commits   int
	rollbacks int
	commitErr error
	closed    bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.commits++
	t.closed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.rollbacks++
	t.closed = true
	return nil
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                               { return nil }

type fakeTxBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

// channelRecorder captures alert fan-out; the middleware sends alerts
// from a goroutine, so delivery lands on a channel the test can wait on.
type channelRecorder struct {
	messages chan string
}

func (r *channelRecorder) SendMessage(ctx context.Context, message string) error {
	r.messages <- message
	return nil
}

type transactionFixture struct {
	tm       *TransactionMiddleware
	beginner *fakeTxBeginner
	alerts   *channelRecorder
	logs     *bytes.Buffer
}

func newTransactionFixture(t *testing.T) *transactionFixture {
	t.Helper()

	log := zerolog.Nop()

	alerts := &channelRecorder{messages: make(chan string, 4)}
	notifier := notification.NewNotifier(&config.Config{}, &log)
	notifier.Email = nil
	notifier.SMS = nil
	notifier.Webhook = nil
	notifier.Slack = alerts

	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{ServiceName: "tx-test", Env: "local"},
		},
		Logger:   &log,
		Notifier: notifier,
	}

	beginner := &fakeTxBeginner{tx: &fakeTx{}}
	return &transactionFixture{
		tm:       &TransactionMiddleware{server: s, db: beginner},
		beginner: beginner,
		alerts:   alerts,
		logs:     &bytes.Buffer{},
	}
}

// run sends a request through WithTransaction wrapping the given
// handler, with a buffer-backed request logger so log output can be
// asserted.
func (f *transactionFixture) run(t *testing.T, handler echo.HandlerFunc) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	bufLogger := zerolog.New(f.logs)
	c.Set(LoggerKey, &bufLogger)

	return f.tm.WithTransaction()(handler)(c)
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	f := newTransactionFixture(t)

	var sawTx bool
	err := f.run(t, func(c echo.Context) error {
		_, sawTx = TxFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, err)
	assert.True(t, sawTx, "handler should see the request transaction")
	assert.Equal(t, 1, f.beginner.tx.commits)
	assert.Equal(t, 0, f.beginner.tx.rollbacks)
	assert.Contains(t, f.logs.String(), "db_transaction_complete")
}

func TestWithTransactionRollsBackOnHandlerError(t *testing.T) {
	f := newTransactionFixture(t)

	handlerErr := errors.New("business rule rejected")
	err := f.run(t, func(c echo.Context) error {
		return handlerErr
	})

	// Non-database errors pass through unchanged and raise no alert.
	assert.Same(t, handlerErr, err)
	assert.Equal(t, 0, f.beginner.tx.commits)
	assert.Equal(t, 1, f.beginner.tx.rollbacks)
	assert.NotContains(t, f.logs.String(), "db_transaction_error")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.alerts.messages)
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	f := newTransactionFixture(t)

	func() {
		defer func() {
			require.NotNil(t, recover(), "panic should propagate to the recovery middleware")
		}()
		_ = f.run(t, func(c echo.Context) error {
			panic("handler exploded")
		})
	}()

	assert.Equal(t, 0, f.beginner.tx.commits)
	assert.Equal(t, 1, f.beginner.tx.rollbacks)
	assert.Contains(t, f.logs.String(), "db_transaction_complete")
}

func TestWithTransactionDatabaseErrorAlerts(t *testing.T) {
	f := newTransactionFixture(t)

	err := f.run(t, func(c echo.Context) error {
		return &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"}
	})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, 1, f.beginner.tx.rollbacks)
	assert.Contains(t, f.logs.String(), "db_transaction_error")

	select {
	case msg := <-f.alerts.messages:
		assert.Contains(t, msg, "*CRITICAL ALERT*")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a critical alert for the database failure")
	}
}

func TestWithTransactionBeginFailure(t *testing.T) {
	f := newTransactionFixture(t)
	f.beginner.err = errors.New("connection pool exhausted")

	err := f.run(t, func(c echo.Context) error {
		t.Fatal("handler must not run when the transaction cannot start")
		return nil
	})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Contains(t, f.logs.String(), "db_transaction_error")

	select {
	case <-f.alerts.messages:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a critical alert when the transaction cannot start")
	}
}

func TestWithTransactionCommitFailure(t *testing.T) {
	f := newTransactionFixture(t)
	f.beginner.tx.commitErr = &pgconn.PgError{Code: "40001", Message: "serialization failure"}

	err := f.run(t, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)

	// The deferred rollback still releases the failed transaction.
	assert.Equal(t, 1, f.beginner.tx.rollbacks)
	assert.Contains(t, f.logs.String(), "db_transaction_error")
}
