package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/heracore/backend/domain"
	"github.com/heracore/backend/repository"
)

// Options tune a single invocation. All fields are optional; organization id
// may also travel inside the payload.
type Options struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	TimeoutMs      int    `json:"timeout_ms,omitempty"`
}

// ErrorInfo is the wire shape of a failed invocation.
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Metadata accompanies every result, success or failure.
type Metadata struct {
	CorrelationID   string `json:"correlation_id"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
	Cached          bool   `json:"cached,omitempty"`
}

// Result is the single response shape of the procedure adapter. Invoke
// never returns a Go error across its public boundary; Success is the sole
// failure signal.
type Result struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// Adapter is the single entry point for every universal-schema operation.
// It normalizes the smart code, derives idempotency and correlation ids,
// dispatches to the registered handler, and replays ledgered results for
// retried mutations.
type Adapter struct {
	registry *Registry
	ledger   repository.LedgerRepository
	orgs     repository.OrganizationRepository
	logger   *zap.Logger
}

func NewAdapter(registry *Registry, ledger repository.LedgerRepository, orgs repository.OrganizationRepository, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		registry: registry,
		ledger:   ledger,
		orgs:     orgs,
		logger:   logger,
	}
}

// Invoke executes the procedure identified by smartCode against payload.
func (a *Adapter) Invoke(ctx context.Context, smartCode string, payload map[string]interface{}, opts Options) *Result {
	start := time.Now()

	correlationID := opts.CorrelationID
	if correlationID == "" {
		correlationID = domain.NewCorrelationID(start)
	}
	meta := Metadata{CorrelationID: correlationID}

	code, err := domain.ParseSmartCode(smartCode)
	if err != nil {
		return a.fail(start, meta, err)
	}

	organizationID := opts.OrganizationID
	if organizationID == "" {
		if v, ok := payload["organization_id"].(string); ok {
			organizationID = v
		}
	}
	if organizationID == "" {
		return a.fail(start, meta, domain.NewError(domain.ErrCodeValidationFailed, "payload missing organization_id"))
	}

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return a.fail(start, meta, domain.WrapError(domain.ErrCodeValidationFailed, "payload is not serializable", err))
	}

	idempotencyKey := opts.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey, err = DeriveKey(code.Canonical, organizationID, rawPayload)
		if err != nil {
			return a.fail(start, meta, domain.WrapError(domain.ErrCodeValidationFailed, "could not derive idempotency key", err))
		}
	}
	meta.IdempotencyKey = idempotencyKey

	payloadHash, err := PayloadHash(rawPayload)
	if err != nil {
		return a.fail(start, meta, domain.WrapError(domain.ErrCodeValidationFailed, "could not hash payload", err))
	}

	reg, ok := a.registry.resolve(code.Canonical)
	if !ok {
		return a.fail(start, meta, domain.Errorf(domain.ErrCodeProcedureNotFound, "no handler registered for %s", code.Canonical))
	}

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	if a.orgs != nil {
		if _, err := a.orgs.GetByID(ctx, organizationID); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeOrganizationNotFound) {
				return a.fail(start, meta, err)
			}
			return a.fail(start, meta, a.timeoutOr(ctx, err))
		}
	}

	log := a.logger.With(
		zap.String("smart_code", code.Canonical),
		zap.String("correlation_id", correlationID),
		zap.String("organization_id", organizationID),
	)

	if reg.mutating && a.ledger != nil {
		entry, err := a.ledger.Lookup(ctx, organizationID, code.Canonical, idempotencyKey)
		switch {
		case err == nil:
			return a.replay(start, meta, entry, payloadHash, log)
		case domain.IsDomainError(err, domain.ErrCodeNotFound):
			// first sighting of this key; proceed
		default:
			return a.fail(start, meta, a.timeoutOr(ctx, err))
		}
	}

	req := Request{
		Code:           code,
		OrganizationID: organizationID,
		UserID:         opts.UserID,
		CorrelationID:  correlationID,
		Payload:        rawPayload,
	}

	data, err := reg.handler(ctx, req)
	if err != nil {
		log.Warn("procedure failed", zap.String("error_code", string(domain.CodeOf(err))), zap.Error(err))
		return a.fail(start, meta, a.timeoutOr(ctx, err))
	}

	resultJSON, err := json.Marshal(data)
	if err != nil {
		return a.fail(start, meta, domain.WrapError(domain.ErrCodeExecutionError, "handler result is not serializable", err))
	}

	if reg.mutating && a.ledger != nil {
		stored, err := a.ledger.Record(ctx, &domain.LedgerEntry{
			OrganizationID: organizationID,
			SmartCode:      code.Canonical,
			IdempotencyKey: idempotencyKey,
			PayloadHash:    payloadHash,
			CorrelationID:  correlationID,
			Result:         resultJSON,
		})
		if err != nil {
			log.Error("ledger record failed", zap.Error(err))
		} else if stored != nil && stored.CorrelationID != correlationID {
			// a concurrent duplicate won the race; replay its result
			return a.replay(start, meta, stored, payloadHash, log)
		}
	}

	log.Info("procedure completed", zap.Duration("elapsed", time.Since(start)))

	meta.ExecutionTimeMs = time.Since(start).Milliseconds()
	return &Result{
		Success:  true,
		Data:     resultJSON,
		Metadata: meta,
	}
}

// replay returns a previously ledgered result without re-executing. The
// data bytes are exactly what the first execution produced.
func (a *Adapter) replay(start time.Time, meta Metadata, entry *domain.LedgerEntry, payloadHash string, log *zap.Logger) *Result {
	if entry.PayloadHash != "" && entry.PayloadHash != payloadHash {
		return a.fail(start, meta, domain.NewError(domain.ErrCodeIdempotencyConflict,
			"idempotency key was already used with a different payload"))
	}
	log.Info("procedure replayed from ledger")
	meta.Cached = true
	meta.ExecutionTimeMs = time.Since(start).Milliseconds()
	return &Result{
		Success:  true,
		Data:     entry.Result,
		Metadata: meta,
	}
}

func (a *Adapter) fail(start time.Time, meta Metadata, err error) *Result {
	meta.ExecutionTimeMs = time.Since(start).Milliseconds()

	info := &ErrorInfo{
		Code:    string(domain.CodeOf(err)),
		Message: err.Error(),
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Err != nil {
		info.Details = dErr.Err.Error()
	}

	return &Result{
		Success:  false,
		Error:    info,
		Metadata: meta,
	}
}

// timeoutOr maps a deadline expiry to the Timeout error code, leaving other
// errors untouched.
func (a *Adapter) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrCodeTimeout, "procedure timed out", err)
	}
	return err
}
