package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
)

const tracerName = "github.com/jcmexdev/storefront/internal/coordinator"

// Step is a single unit of work in a placement. Compensate undoes a
// successful Execute.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator runs Steps in order and compensates the completed ones in
// reverse order when a later step fails.
type Orchestrator struct {
	sagaID  string
	payload string
	steps   []Step
	log     sagalog.Repository
}

// NewOrchestrator builds an orchestrator. log may be nil, in which case
// transitions are only written to slog.
func NewOrchestrator(sagaID string, steps []Step, log sagalog.Repository) *Orchestrator {
	return &Orchestrator{sagaID: sagaID, steps: steps, log: log}
}

// WithPayload records the input that started the saga on its STARTED entry.
func (o *Orchestrator) WithPayload(payload string) *Orchestrator {
	o.payload = payload
	return o
}

// Start runs the steps sequentially.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "saga.place_order")
	defer span.End()
	span.SetAttributes(attribute.String("saga.id", o.sagaID))

	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var done []Step
	for _, step := range o.steps {
		if err := o.execute(ctx, step); err != nil {
			slog.WarnContext(ctx, "saga step failed, compensating",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs := []string{fmt.Sprintf("%s failed: %v", step.Name(), err)}

			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", errs)
			errs = append(errs, o.rollback(ctx, done)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.InfoContext(ctx, "saga completed", "saga_id", o.sagaID, "steps", len(o.steps))
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "saga.step."+step.Name())
	defer span.End()

	slog.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
	if err := step.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// rollback runs on a context detached from the caller's deadline so an
// expired placement can still be undone.
func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	ctx = context.WithoutCancel(ctx)

	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate saga step",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.log.Save(context.WithoutCancel(ctx), entry); err != nil {
		slog.ErrorContext(ctx, "failed to write saga log", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
