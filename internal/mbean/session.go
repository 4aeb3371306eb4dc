package mbean

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/coerce"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

// Conn is the part of a remote connection that a Session mutates through.
type Conn interface {
	SetAttributes(ctx context.Context, object ObjectName, values []AttributeValue) error
	Invoke(ctx context.Context, object ObjectName, operation string, values []any, types []string) error
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// DryRun performs every lookup, coercion and overload resolution but
	// skips the remote attribute commit and operation invocations.
	DryRun bool
	Logger *slog.Logger
}

// Session applies requests to one MBean over one connection.
// A Session is not safe for concurrent use.
type Session struct {
	conn   Conn
	object ObjectName
	index  *Index
	dryRun bool
	logger *slog.Logger
}

// NewSession creates a Session for object using an index built from its schema.
func NewSession(conn Conn, object ObjectName, index *Index, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		conn:   conn,
		object: object,
		index:  index,
		dryRun: opts.DryRun,
		logger: logger.With(slog.String("mbean", object.String())),
	}
}

// ApplyAttributes validates and coerces every request, then commits them in
// a single call. Nothing is committed unless every request is valid.
func (s *Session) ApplyAttributes(ctx context.Context, requests []AttributeRequest) error {
	if len(requests) == 0 {
		return nil
	}

	values := make([]AttributeValue, 0, len(requests))
	for _, req := range requests {
		desc, ok := s.index.Attribute(req.Name)
		if !ok {
			return errors.UnknownAttribute(req.Name, s.object.String())
		}
		if !desc.Writable {
			return errors.NotWritable(req.Name)
		}
		v, err := coerce.Coerce(desc.Type, req.Value)
		if err != nil {
			return errors.Wrapf(err, "cannot apply attribute %q", req.Name)
		}
		s.logger.InfoContext(ctx, "Appending attribute to the apply list",
			slog.String("attribute", req.Name),
			slog.String("value", req.Value),
			slog.String("type", desc.Type),
		)
		values = append(values, AttributeValue{Name: req.Name, Type: desc.Type, Value: v})
	}

	if len(values) == 0 {
		return nil
	}
	if s.dryRun {
		s.logger.InfoContext(ctx, "Dry run, skipping attribute commit",
			slog.Int("count", len(values)),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "Committing attribute changes",
		slog.Int("count", len(values)),
	)
	if err := s.conn.SetAttributes(ctx, s.object, values); err != nil {
		return errors.Remote("set attributes", err)
	}
	return nil
}

// InvokeOperations resolves, coerces and invokes each request in order,
// stopping at the first failure.
func (s *Session) InvokeOperations(ctx context.Context, requests []OperationRequest) error {
	for _, req := range requests {
		if err := s.invoke(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) invoke(ctx context.Context, req OperationRequest) error {
	candidates := s.index.Overloads(req.Name)
	if len(candidates) == 0 {
		return errors.UnknownOperation(req.Name, s.object.String())
	}

	op, shortfall, err := Resolve(req.Name, len(req.Parameters), candidates)
	if err != nil {
		return err
	}
	if shortfall > 0 {
		s.logger.WarnContext(ctx, "Best match overload accepts fewer parameters than specified",
			slog.String("operation", req.Name),
			slog.Int("accepted", len(op.Parameters)),
			slog.Int("specified", len(req.Parameters)),
		)
	}

	values := make([]any, len(op.Parameters))
	types := op.ParameterTypes()
	for i, p := range op.Parameters {
		v, err := coerce.Coerce(p.Type, req.Parameters[i])
		if err != nil {
			return errors.Wrapf(err, "operation %q parameter %d", req.Name, i)
		}
		values[i] = v
	}

	call := formatInvocation(op, values)
	if s.dryRun {
		s.logger.InfoContext(ctx, "Dry run, skipping operation",
			slog.String("invocation", call),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "Invoking operation",
		slog.String("invocation", call),
	)
	if err := s.conn.Invoke(ctx, s.object, op.Name, values, types); err != nil {
		return errors.Remote(fmt.Sprintf("invoke %s", op.Signature()), err)
	}
	return nil
}

// formatInvocation renders name(type param=value,...).
func formatInvocation(op OperationDescriptor, values []any) string {
	var b strings.Builder
	b.WriteString(op.Name)
	b.WriteByte('(')
	for i, p := range op.Parameters {
		if i > 0 {
			b.WriteByte(',')
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("p%d", i)
		}
		fmt.Fprintf(&b, "%s %s=%s", p.Type, name, coerce.Format(values[i]))
	}
	b.WriteByte(')')
	return b.String()
}
