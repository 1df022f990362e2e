package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/graftlabs/graft/pkg/bridgerpc"
	"github.com/graftlabs/graft/pkg/property"
	"github.com/graftlabs/graft/pkg/settings"
	"github.com/graftlabs/graft/pkg/tasks"
	"github.com/graftlabs/graft/pkg/telemetry"
)

// Server adapts a Provider to the engine's ComponentProvider service. It owns
// the full request pipeline: request validation, the settings overwrite, wire
// decode, handler invocation, wire encode, and the background-task drain.
type Server struct {
	provider       Provider
	engineEndpoint string

	settings *settings.Store
	tasks    *tasks.Registry
	validate *validator.Validate
	tel      *telemetry.Telemetry

	// schemaSource, when set, overrides the provider's static schema. The
	// hot-reload file watcher plugs in here.
	schemaSource func() string

	// mu serializes Construct and Call end-to-end. The settings overwrite at
	// the top of each request mutates process-wide state that the handler may
	// read at any point before the response is encoded, so two in-flight
	// requests cannot be allowed to interleave. Handlers that read only the
	// ctx snapshot do not need this; the lock stays until the process-wide
	// store is retired.
	mu sync.Mutex
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithTelemetry supplies the telemetry bundle.
func WithTelemetry(tel *telemetry.Telemetry) ServerOption {
	return func(s *Server) { s.tel = tel }
}

// WithEngineEndpoint records the engine address the process was started for.
func WithEngineEndpoint(addr string) ServerOption {
	return func(s *Server) { s.engineEndpoint = addr }
}

// WithTaskRegistry supplies a shared task registry. The serve loop and the
// request handlers must share one so the drain sees work spawned anywhere.
func WithTaskRegistry(reg *tasks.Registry) ServerOption {
	return func(s *Server) { s.tasks = reg }
}

// WithSchemaSource overrides where GetSchema reads the schema document from.
func WithSchemaSource(source func() string) ServerOption {
	return func(s *Server) { s.schemaSource = source }
}

// NewServer creates a server around the given handler.
func NewServer(p Provider, opts ...ServerOption) *Server {
	s := &Server{
		provider: p,
		settings: settings.NewStore(),
		validate: validator.New(),
		tel:      telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tasks == nil {
		s.tasks = tasks.NewRegistry()
	}
	return s
}

// Settings exposes the process-wide settings store.
func (s *Server) Settings() *settings.Store {
	return s.settings
}

// Tasks exposes the server's task registry so handlers can spawn tracked
// background work.
func (s *Server) Tasks() *tasks.Registry {
	return s.tasks
}

// configure overwrites the settings store from the request and returns a ctx
// carrying the resulting immutable snapshot.
func (s *Server) configure(ctx context.Context, project, stack string, parallel int32, monitor string, dryRun bool, config map[string]string, secretKeys []string) context.Context {
	s.settings.Reset(settings.Options{
		Project:         project,
		Stack:           stack,
		Parallel:        int(parallel),
		EngineEndpoint:  s.engineEndpoint,
		MonitorEndpoint: monitor,
		DryRun:          dryRun,
	})
	s.settings.SetAllConfig(config, secretKeys)
	return settings.NewContext(ctx, s.settings.Snapshot())
}

// Construct implements bridgerpc.ComponentProviderServer.
func (s *Server) Construct(ctx context.Context, req *bridgerpc.ConstructRequest) (resp *bridgerpc.ConstructResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestID := uuid.NewString()
	log := s.tel.Logger.WithRequest("Construct", requestID)
	start := time.Now()
	s.tel.Metrics.RecordRequestStarted("Construct")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.tel.Metrics.RecordRequestCompleted("Construct", outcome, time.Since(start))
	}()

	if err := s.validate.Struct(req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid construct request: %v", err)
	}

	ctx, span := s.tel.Tracer.StartRequestSpan(ctx, "Construct",
		telemetry.AttrComponentType.String(req.Type),
		telemetry.AttrComponentName.String(req.Name),
		telemetry.AttrDryRun.Bool(req.DryRun),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}()

	ctx = s.configure(ctx, req.Project, req.Stack, req.Parallel, req.MonitorEndpoint, req.DryRun, req.Config, req.ConfigSecretKeys)
	ctx = log.WithContext(ctx)

	log.Debug().Str("type", req.Type).Str("name", req.Name).Msg("construct request")

	decoded, err := property.UnmarshalProperties(req.Inputs, property.UnmarshalOptions{KeepUnknowns: true})
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding inputs: %v", err)
	}

	inputs := make(map[string]interface{}, len(decoded))
	for _, key := range decoded.StableKeys() {
		inputs[key] = buildInput(decoded[key], req.InputDependencies[key].URNs)
	}

	opts, err := buildConstructOptions(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	result, err := s.provider.Construct(ctx, req.Type, req.Name, inputs, opts)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, status.Errorf(codes.Internal, "construct of %s returned no result", req.Type)
	}

	urn, err := resolveURN(ctx, result.URN)
	if err != nil {
		return nil, fmt.Errorf("resolving urn for %s: %w", req.Name, err)
	}
	span.SetAttributes(telemetry.AttrComponentURN.String(urn))

	state, stateDeps, err := s.encodeProperties(ctx, result.State)
	if err != nil {
		return nil, fmt.Errorf("encoding state for %s: %w", urn, err)
	}

	if err := s.drain(ctx, "Construct"); err != nil {
		return nil, err
	}

	log.Debug().Str("urn", urn).Msg("construct complete")
	return &bridgerpc.ConstructResponse{
		URN:               urn,
		State:             state,
		StateDependencies: stateDeps,
	}, nil
}

// Call implements bridgerpc.ComponentProviderServer.
func (s *Server) Call(ctx context.Context, req *bridgerpc.CallRequest) (resp *bridgerpc.CallResponse, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestID := uuid.NewString()
	log := s.tel.Logger.WithRequest("Call", requestID)
	start := time.Now()
	s.tel.Metrics.RecordRequestStarted("Call")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.tel.Metrics.RecordRequestCompleted("Call", outcome, time.Since(start))
	}()

	if err := s.validate.Struct(req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid call request: %v", err)
	}

	ctx, span := s.tel.Tracer.StartRequestSpan(ctx, "Call",
		telemetry.AttrCallToken.String(req.Tok),
		telemetry.AttrDryRun.Bool(req.DryRun),
	)
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}()

	ctx = s.configure(ctx, req.Project, req.Stack, req.Parallel, req.MonitorEndpoint, req.DryRun, req.Config, req.ConfigSecretKeys)
	ctx = log.WithContext(ctx)

	log.Debug().Str("tok", req.Tok).Msg("call request")

	// Internal keys are kept here because one of them carries the method
	// receiver; it is surfaced explicitly below and the rest are discarded.
	decoded, err := property.UnmarshalProperties(req.Args, property.UnmarshalOptions{KeepUnknowns: true, KeepInternal: true})
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding args: %v", err)
	}

	args := &CallArgs{Args: make(map[string]interface{}, len(decoded))}
	for _, key := range decoded.StableKeys() {
		built := buildInput(decoded[key], req.ArgDependencies[key].URNs)
		if key == property.SelfKey {
			args.Self = built
			continue
		}
		if property.IsInternalKey(key) {
			continue
		}
		args.Args[key] = built
	}

	result, err := s.provider.Call(ctx, req.Tok, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, status.Errorf(codes.Internal, "call of %s returned no result", req.Tok)
	}

	ret, retDeps, err := s.encodeProperties(ctx, result.Outputs)
	if err != nil {
		return nil, fmt.Errorf("encoding return of %s: %w", req.Tok, err)
	}

	failures := make([]bridgerpc.CheckFailure, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = bridgerpc.CheckFailure{Property: f.Property, Reason: f.Reason}
	}
	s.tel.Metrics.RecordCheckFailures(len(failures))

	if err := s.drain(ctx, "Call"); err != nil {
		return nil, err
	}

	log.Debug().Str("tok", req.Tok).Int("failures", len(failures)).Msg("call complete")
	return &bridgerpc.CallResponse{
		Return:             ret,
		ReturnDependencies: retDeps,
		Failures:           failures,
	}, nil
}

// Configure implements bridgerpc.ComponentProviderServer. The bridge's
// capabilities are fixed: secrets and component references are always
// understood.
func (s *Server) Configure(ctx context.Context, req *bridgerpc.ConfigureRequest) (*bridgerpc.ConfigureResponse, error) {
	return &bridgerpc.ConfigureResponse{
		AcceptSecrets:   true,
		AcceptResources: true,
	}, nil
}

// GetPluginInfo implements bridgerpc.ComponentProviderServer.
func (s *Server) GetPluginInfo(ctx context.Context, req *bridgerpc.PluginInfoRequest) (*bridgerpc.PluginInfo, error) {
	return &bridgerpc.PluginInfo{Version: s.provider.Version()}, nil
}

// GetSchema implements bridgerpc.ComponentProviderServer.
func (s *Server) GetSchema(ctx context.Context, req *bridgerpc.GetSchemaRequest) (*bridgerpc.GetSchemaResponse, error) {
	if req.Version != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported schema version %d", req.Version)
	}
	schema := ""
	if s.schemaSource != nil {
		schema = s.schemaSource()
	} else {
		schema = s.provider.Schema()
	}
	if schema == "" {
		schema = "{}"
	}
	return &bridgerpc.GetSchemaResponse{Schema: schema}, nil
}

// buildConstructOptions translates the request's engine-resolved options into
// handles the handler can use.
func buildConstructOptions(req *bridgerpc.ConstructRequest) (*ConstructOptions, error) {
	opts := &ConstructOptions{
		Aliases: req.Aliases,
		Protect: req.Protect,
	}
	if req.Parent != "" {
		opts.Parent = NewComponent(req.Parent)
	}
	if len(req.Dependencies) > 0 {
		opts.DependsOn = make([]*Component, len(req.Dependencies))
		for i, urn := range req.Dependencies {
			opts.DependsOn[i] = NewComponent(urn)
		}
	}
	if len(req.Providers) > 0 {
		opts.Providers = make(map[string]*Component, len(req.Providers))
		for pkg, ref := range req.Providers {
			c, err := ParseProviderReference(ref)
			if err != nil {
				return nil, fmt.Errorf("provider for package %q: %w", pkg, err)
			}
			opts.Providers[pkg] = c
		}
	}
	return opts, nil
}

// resolveURN accepts the identity shapes a handler may return and settles them
// to a string.
func resolveURN(ctx context.Context, urn interface{}) (string, error) {
	switch t := urn.(type) {
	case string:
		if t == "" {
			return "", fmt.Errorf("empty urn")
		}
		return t, nil
	case *Future[string]:
		return t.Result(ctx)
	case *Component:
		return t.URN(ctx)
	case *Output:
		v, err := t.Value(ctx)
		if err != nil {
			return "", err
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("urn output resolved to %T, want string", v)
		}
		return s, nil
	case property.Value:
		if !t.IsString() {
			return "", fmt.Errorf("urn value is not a string")
		}
		return t.StringValue(), nil
	case nil:
		return "", fmt.Errorf("missing urn")
	default:
		return "", fmt.Errorf("unrecognized urn of type %T", urn)
	}
}

// encodeProperties encodes a handler result bag, stripping the reserved
// identity keys and resolving every collected dependency handle to its URN.
func (s *Server) encodeProperties(ctx context.Context, props map[string]interface{}) (*structpb.Struct, map[string]bridgerpc.PropertyDependencies, error) {
	filtered := make(map[string]interface{}, len(props))
	for k, v := range props {
		// Identity travels out of band; a handler echoing it into state would
		// shadow the engine's own record.
		if k == "id" || k == "urn" {
			continue
		}
		filtered[k] = v
	}

	rec := property.NewDependencyRecorder()
	bag, err := property.MarshalProperties(ctx, filtered, rec)
	if err != nil {
		return nil, nil, err
	}

	deps := make(map[string]bridgerpc.PropertyDependencies)
	for key, handles := range rec.Dependencies() {
		urns, err := resolveDependencyURNs(ctx, handles)
		if err != nil {
			return nil, nil, fmt.Errorf("property %q: %w", key, err)
		}
		if len(urns) > 0 {
			deps[key] = bridgerpc.PropertyDependencies{URNs: urns}
		}
	}
	return bag, deps, nil
}

// resolveDependencyURNs settles each handle's URN, deduplicates, and sorts.
func resolveDependencyURNs(ctx context.Context, handles []property.Dependency) ([]string, error) {
	seen := make(map[string]struct{}, len(handles))
	urns := make([]string, 0, len(handles))
	for _, h := range handles {
		urn, err := h.URN(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency urn: %w", err)
		}
		if _, dup := seen[urn]; dup {
			continue
		}
		seen[urn] = struct{}{}
		urns = append(urns, urn)
	}
	sort.Strings(urns)
	return urns, nil
}

// drain waits for request-scoped background work before the response is sent.
func (s *Server) drain(ctx context.Context, method string) error {
	pending := s.tasks.Pending(tasks.ScopeRequest)
	if pending == 0 {
		return nil
	}
	start := time.Now()
	if err := s.tasks.Drain(ctx); err != nil {
		return fmt.Errorf("draining %d pending tasks: %w", pending, err)
	}
	s.tel.Metrics.RecordDrain(method, time.Since(start), pending)
	return nil
}
