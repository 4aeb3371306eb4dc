package runner

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AndreyAkinshin/mbexec/internal/connector"
	"github.com/AndreyAkinshin/mbexec/internal/mbean"
	"github.com/AndreyAkinshin/mbexec/internal/target"
)

const tracerName = "github.com/AndreyAkinshin/mbexec/internal/runner"

// Plan is the batch applied to every target.
type Plan struct {
	Object     mbean.ObjectName
	Attributes []mbean.AttributeRequest
	Operations []mbean.OperationRequest
	DryRun     bool
}

// Pipeline is the per-target work: connect, introspect, apply attributes,
// invoke operations, close.
type Pipeline struct {
	connector connector.Connector
	plan      Plan
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewPipeline creates a pipeline applying plan through c.
func NewPipeline(c connector.Connector, plan Plan, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		connector: c,
		plan:      plan,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Execute runs the plan against t. It matches Work.
func (p *Pipeline) Execute(ctx context.Context, t target.Target) (err error) {
	ctx, span := p.tracer.Start(ctx, "mbexec.target",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("mbexec.target", t.Name),
			attribute.String("server.address", t.Host),
			attribute.Int("server.port", t.Port),
			attribute.String("mbexec.mbean", p.plan.Object.String()),
			attribute.Bool("mbexec.dry_run", p.plan.DryRun),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := p.logger.With(slog.String("target", t.Label()))
	logger.InfoContext(ctx, "Connecting", slog.String("address", t.Address()))

	conn, err := p.connector.Connect(ctx, t)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.WarnContext(ctx, "Closing connection failed", slog.Any("error", cerr))
		}
	}()

	schema, err := conn.Introspect(ctx, p.plan.Object)
	if err != nil {
		return err
	}
	if schema == nil {
		schema = &mbean.Schema{}
	}
	index := mbean.BuildIndex(schema)
	span.AddEvent("introspected", trace.WithAttributes(
		attribute.Int("attributes", len(schema.Attributes)),
		attribute.Int("operations", len(schema.Operations)),
	))

	session := mbean.NewSession(conn, p.plan.Object, index, mbean.SessionOptions{
		DryRun: p.plan.DryRun,
		Logger: logger,
	})
	if err := session.ApplyAttributes(ctx, p.plan.Attributes); err != nil {
		return err
	}
	return session.InvokeOperations(ctx, p.plan.Operations)
}
