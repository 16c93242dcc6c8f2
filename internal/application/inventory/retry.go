package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RetryPolicy reintentos ante domain.ErrConcurrentModification.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy 3 intentos con 20ms de base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// newBackOff espera exponencial (x2, ±25% de jitter) desde BaseDelay; sin espera si BaseDelay es 0.
func (p RetryPolicy) newBackOff() backoff.BackOff {
	if p.BaseDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxInterval = 32 * p.BaseDelay
	b.Reset()
	return b
}

// executor ejecuta cada operación mutante en su propia transacción, reintentando la closure
// original completa ante conflictos.
type executor struct {
	tx      TxRunner
	policy  RetryPolicy
	metrics Metrics
	log     *logger.Logger
}

func newExecutor(tx TxRunner, policy RetryPolicy, metrics Metrics, log *logger.Logger) *executor {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &executor{tx: tx, policy: policy.normalized(), metrics: metrics, log: log}
}

// run ejecuta fn en una transacción; fn debe ser re-ejecutable (todo su estado se recalcula dentro).
// Solo los conflictos se reintentan; cualquier otro error corta en el primer intento.
func (e *executor) run(ctx context.Context, op string, fn func(ctx context.Context, repos Repos) error) error {
	start := time.Now()
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := e.tx.Run(ctx, fn)
		if err != nil && !errors.Is(err, domain.ErrConcurrentModification) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(e.policy.newBackOff()),
		backoff.WithMaxTries(uint(e.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			e.metrics.IncRetry(op)
			e.log.Warn().Str("op", op).Int("attempt", attempt).Dur("wait", wait).Err(err).
				Msg("conflicto de concurrencia, reintentando")
		}),
	)
	// En el último intento Retry devuelve el error tal cual, aunque esté marcado como permanente.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	e.metrics.ObserveOperation(op, resultLabel(err), time.Since(start))
	return err
}

// resultLabel etiqueta de resultado para métricas.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}
