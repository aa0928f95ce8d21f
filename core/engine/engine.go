// Package engine orchestrates one document write evaluation: type
// resolution, authorization, validation, access assignment, and channel
// publication, strictly in that order, with lifecycle hooks after each
// successful stage. A write either completes every stage or produces no side
// effects at all.
package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/syncgate/core/access"
	"github.com/artpar/syncgate/core/schema"
	"github.com/artpar/syncgate/core/validation"
	"github.com/artpar/syncgate/domain/document"
	"github.com/artpar/syncgate/ports"
)

// Evaluation outcomes reported to the metrics recorder.
const (
	OutcomeAccepted      = "accepted"
	OutcomeUnknownType   = "unknown_type"
	OutcomeUnauthorized  = "unauthorized"
	OutcomeInvalid       = "invalid"
	OutcomeMisconfigured = "misconfigured"
)

// Recorder observes write evaluations. adapters/metrics provides a
// Prometheus implementation; a nil Recorder disables collection.
type Recorder interface {
	RecordWrite(documentType, operation, outcome string)
}

// Engine interprets a read-only document-type catalogue against proposed
// writes. Construct it once per catalogue; it holds no mutable state between
// invocations, so concurrent Evaluate calls are safe as long as the
// catalogue's own functions are.
type Engine struct {
	catalog                schema.Catalog
	logger                 zerolog.Logger
	metrics                Recorder
	allowUntypedTombstones bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger (default: disabled).
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the engine's metrics recorder.
func WithMetrics(recorder Recorder) Option {
	return func(e *Engine) { e.metrics = recorder }
}

// AllowUntypedTombstones accepts a deletion that has no effective prior
// revision and matches no document type, with no side effects. This mirrors
// shared-bucket tombstone handling where deletions may arrive for documents
// the catalogue never governed. Off by default: an unknown type is fatal.
func AllowUntypedTombstones() Option {
	return func(e *Engine) { e.allowUntypedTombstones = true }
}

// New creates an engine over the given catalogue. The catalogue must be
// fully constructed before the first Evaluate call and never mutated
// afterward.
func New(catalog schema.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result reports an accepted write: the resolved type, operation kind, the
// authorization outcome triple, the access grants applied, and the channels
// published.
type Result struct {
	DocumentType      string
	Operation         access.Operation
	Authorization     schema.Authorization
	AccessAssignments []schema.ResolvedAssignment
	Channels          []string
}

// Evaluate decides a single proposed write. On acceptance the host's channel
// publication and grant primitives have been invoked and the Result reports
// what was applied. On rejection the returned error is a *ForbiddenError
// (authorization or validation failure, or unknown type) or a
// *validation.ConfigurationError (broken catalogue), and no side effects
// have occurred.
func (e *Engine) Evaluate(doc, oldDoc document.Document, host ports.Host) (*Result, error) {
	operation := access.OperationKind(doc, oldDoc)
	effectiveOld := document.EffectiveOld(oldDoc)

	docType := e.catalog.Resolve(doc, effectiveOld)
	if docType == nil {
		if e.allowUntypedTombstones && doc.Deleted() && effectiveOld == nil {
			e.logger.Debug().Str("doc_id", doc.ID()).Msg("accepting untyped tombstone deletion")
			e.record("", operation, OutcomeAccepted)
			return &Result{Operation: operation}, nil
		}
		e.logger.Info().Str("doc_id", doc.ID()).Msg("document matched no type")
		e.record("", operation, OutcomeUnknownType)
		return nil, ErrUnknownDocumentType
	}

	meta := &schema.WriteMetadata{
		DocumentType: docType.Name,
		Definition:   docType,
	}
	runHook(docType.CustomActions.OnTypeIdentificationSucceeded, doc, oldDoc, meta)

	authorization, err := access.Authorize(doc, oldDoc, docType, host)
	meta.Authorization = &authorization
	if err != nil {
		e.logger.Info().
			Str("doc_id", doc.ID()).
			Str("doc_type", docType.Name).
			Str("operation", string(operation)).
			Msg("write not authorized")
		e.record(docType.Name, operation, OutcomeUnauthorized)
		return nil, &ForbiddenError{Message: err.Error(), Err: err}
	}
	runHook(docType.CustomActions.OnAuthorizationSucceeded, doc, oldDoc, meta)

	violations, err := validation.ValidateDocument(doc, oldDoc, docType)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("doc_type", docType.Name).
			Msg("document type catalogue is misconfigured")
		e.record(docType.Name, operation, OutcomeMisconfigured)
		return nil, err
	}
	if len(violations) > 0 {
		e.logger.Info().
			Str("doc_id", doc.ID()).
			Str("doc_type", docType.Name).
			Int("violations", len(violations)).
			Msg("document failed validation")
		e.record(docType.Name, operation, OutcomeInvalid)
		return nil, &ForbiddenError{
			Message: fmt.Sprintf("Invalid %s document: %s", docType.Name, strings.Join(violations, "; ")),
		}
	}
	runHook(docType.CustomActions.OnValidationSucceeded, doc, oldDoc, meta)

	result := &Result{
		DocumentType:  docType.Name,
		Operation:     operation,
		Authorization: authorization,
	}

	if len(docType.AccessAssignments) > 0 {
		assignments := access.ResolveAssignments(doc, oldDoc, docType.AccessAssignments)
		for _, assignment := range assignments {
			if err := host.Access(assignment.UsersAndRoles, assignment.Channels); err != nil {
				return nil, fmt.Errorf("apply access assignment: %w", err)
			}
		}
		meta.AccessAssignments = assignments
		result.AccessAssignments = assignments
		runHook(docType.CustomActions.OnAccessAssignmentsSucceeded, doc, oldDoc, meta)
	}

	channels := access.AllDocumentChannels(doc, oldDoc, docType)
	if err := host.Channel(channels); err != nil {
		return nil, fmt.Errorf("publish channels: %w", err)
	}
	meta.DocumentChannels = channels
	result.Channels = channels
	runHook(docType.CustomActions.OnDocumentChannelAssignmentSucceeded, doc, oldDoc, meta)

	e.logger.Debug().
		Str("doc_id", doc.ID()).
		Str("doc_type", docType.Name).
		Str("operation", string(operation)).
		Strs("channels", channels).
		Msg("write accepted")
	e.record(docType.Name, operation, OutcomeAccepted)
	return result, nil
}

func (e *Engine) record(documentType string, operation access.Operation, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordWrite(documentType, string(operation), outcome)
	}
}

func runHook(hook schema.HookFn, doc, oldDoc document.Document, meta *schema.WriteMetadata) {
	if hook != nil {
		hook(doc, oldDoc, meta)
	}
}
