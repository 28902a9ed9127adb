// registry.go: Named oracle registry backed by local oracles and go-plugins providers.
//
// The registry maps names to oracles so that a single process can expose
// several victims (cookie, profile, edit, ...) over the remote transport.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	goerrors "github.com/agilira/go-errors"
	goplugins "github.com/agilira/go-plugins"
	timecache "github.com/agilira/go-timecache"
)

// Operation names carried by OracleRequest.
const (
	OperationEncrypt = "encrypt"
	OperationEdit    = "edit"
)

// OracleRequest is a request to a registered oracle, in process or over
// the remote transport. Byte fields travel as base64 in JSON.
type OracleRequest struct {
	Operation  string `json:"operation"`            // encrypt or edit
	Input      []byte `json:"input,omitempty"`      // encrypt input or edit plaintext
	Ciphertext []byte `json:"ciphertext,omitempty"` // edit target
	Offset     int    `json:"offset,omitempty"`     // edit offset
}

// OracleResponse is the result of an OracleRequest.
type OracleResponse struct {
	Success bool   `json:"success"`
	Data    []byte `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OracleInfo describes a registered oracle without exposing it.
type OracleInfo struct {
	Name          string    `json:"name"`
	Deterministic bool      `json:"deterministic"`
	Editable      bool      `json:"editable"`
	Plugin        bool      `json:"plugin,omitempty"` // Served by the plugin manager
	RegisteredAt  time.Time `json:"registered_at"`
}

// Plugin descriptors. A plugin advertises Edit support by listing
// PluginCapabilityEdit and opts out of determinism with
// Metadata[PluginMetadataDeterministic] = "false".
const (
	PluginCapabilityEdit        = OperationEdit
	PluginMetadataDeterministic = "deterministic"
)

// DefaultPluginShutdownTimeout bounds the plugin manager shutdown in Close.
const DefaultPluginShutdownTimeout = 5 * time.Second

// RegistryConfig provides configuration for the oracle registry.
type RegistryConfig struct {
	DefaultOracle   string        `json:"default_oracle"`   // Name resolved by Lookup("")
	ShutdownTimeout time.Duration `json:"shutdown_timeout"` // Plugin manager shutdown, 0 means the default
}

// Registry errors with error codes for the remote transport
var (
	ErrOracleNotFound   = goerrors.New("ORACLE_001", "oracle not found")
	ErrOracleUnhealthy  = goerrors.New("ORACLE_002", "oracle health check failed")
	ErrOracleExists     = goerrors.New("ORACLE_003", "oracle already registered")
	ErrUnknownOperation = goerrors.New("ORACLE_004", "unknown oracle operation")
)

type registryEntry struct {
	oracle       Oracle
	registeredAt time.Time
}

// OracleRegistry manages named oracles. Names not registered locally are
// resolved through the plugin manager, so out-of-process oracles are served
// like local ones. It is safe for concurrent use.
type OracleRegistry struct {
	mu            sync.RWMutex
	pluginManager *goplugins.Manager[OracleRequest, OracleResponse] // Out-of-process oracle providers
	pluginsDown   bool
	oracles       map[string]registryEntry
	defaultOracle string
	config        *RegistryConfig
}

// NewOracleRegistry creates an empty registry. pluginManager may be nil.
func NewOracleRegistry(config *RegistryConfig, pluginManager *goplugins.Manager[OracleRequest, OracleResponse]) *OracleRegistry {
	if config == nil {
		config = &RegistryConfig{}
	}
	return &OracleRegistry{
		pluginManager: pluginManager,
		oracles:       make(map[string]registryEntry),
		config:        config,
	}
}

// PluginManager returns the plugin manager the registry was built with.
func (r *OracleRegistry) PluginManager() *goplugins.Manager[OracleRequest, OracleResponse] {
	return r.pluginManager
}

// Register adds o under name. The first oracle, or the configured default,
// becomes the default.
func (r *OracleRegistry) Register(name string, o Oracle) error {
	if o == nil {
		return fmt.Errorf("oracle cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("oracle name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.oracles[name]; exists {
		return fmt.Errorf("%w: %s", ErrOracleExists, name)
	}
	r.oracles[name] = registryEntry{oracle: o, registeredAt: timecache.CachedTime()}

	if r.defaultOracle == "" || r.config.DefaultOracle == name {
		r.defaultOracle = name
	}
	return nil
}

// Lookup returns the oracle registered under name; "" selects the default.
// Oracles exposing IsHealthy are checked before being returned. A name only
// known to the plugin manager yields an Oracle that forwards to the plugin.
func (r *OracleRegistry) Lookup(name string) (Oracle, error) {
	o, err := r.lookupLocal(name)
	if errors.Is(err, ErrOracleNotFound) {
		if plugin, ok := r.plugin(name); ok {
			if err := r.checkPluginHealth(name); err != nil {
				return nil, err
			}
			return &pluginOracle{registry: r, name: name, info: describePlugin(plugin.Info())}, nil
		}
	}
	return o, err
}

func (r *OracleRegistry) lookupLocal(name string) (Oracle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultOracle
	}
	entry, exists := r.oracles[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrOracleNotFound, name)
	}
	if h, ok := entry.oracle.(interface{ IsHealthy() bool }); ok && !h.IsHealthy() {
		return nil, fmt.Errorf("%w: %s", ErrOracleUnhealthy, name)
	}
	return entry.oracle, nil
}

// plugin returns the plugin registered under name while the manager is up.
func (r *OracleRegistry) plugin(name string) (goplugins.Plugin[OracleRequest, OracleResponse], bool) {
	if r.pluginManager == nil || name == "" {
		return nil, false
	}
	r.mu.RLock()
	down := r.pluginsDown
	r.mu.RUnlock()
	if down {
		return nil, false
	}
	p, err := r.pluginManager.GetPlugin(name)
	if err != nil {
		return nil, false
	}
	return p, true
}

func (r *OracleRegistry) checkPluginHealth(name string) error {
	status, ok := r.pluginManager.ListPlugins()[name]
	if ok && status.Status != goplugins.StatusHealthy && status.Status != goplugins.StatusDegraded {
		return fmt.Errorf("%w: %s (%s)", ErrOracleUnhealthy, name, status.Status)
	}
	return nil
}

// Info describes the oracle registered under name.
func (r *OracleRegistry) Info(name string) (OracleInfo, error) {
	r.mu.RLock()
	entry, exists := r.oracles[name]
	r.mu.RUnlock()
	if exists {
		return describe(name, entry), nil
	}
	if plugin, ok := r.plugin(name); ok {
		return describePlugin(plugin.Info()), nil
	}
	return OracleInfo{}, fmt.Errorf("%w: %s", ErrOracleNotFound, name)
}

func describe(name string, entry registryEntry) OracleInfo {
	info := OracleInfo{Name: name, Deterministic: true, RegisteredAt: entry.registeredAt}
	if d, ok := entry.oracle.(DeterminismReporter); ok {
		info.Deterministic = d.Deterministic()
	}
	if c, ok := entry.oracle.(*Context); ok {
		// A Context always has Edit but only CTR with a fixed nonce accepts it.
		info.Editable = c.Mode() == ModeCTR && c.Deterministic()
	} else {
		_, info.Editable = entry.oracle.(EditOracle)
	}
	return info
}

func describePlugin(pi goplugins.PluginInfo) OracleInfo {
	info := OracleInfo{
		Name:          pi.Name,
		Deterministic: pi.Metadata[PluginMetadataDeterministic] != "false",
		Plugin:        true,
	}
	for _, c := range pi.Capabilities {
		if c == PluginCapabilityEdit {
			info.Editable = true
		}
	}
	return info
}

// Names returns the local and plugin names in sorted order. A local oracle
// shadows a plugin of the same name.
func (r *OracleRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.oracles))
	for name := range r.oracles {
		names = append(names, name)
	}
	down := r.pluginsDown
	r.mu.RUnlock()

	if r.pluginManager != nil && !down {
		for name := range r.pluginManager.ListPlugins() {
			if _, err := r.pluginManager.GetPlugin(name); err != nil {
				continue
			}
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Serve executes req against the named oracle. Oracle failures are
// reported in the response, not as an error.
func (r *OracleRegistry) Serve(name string, req OracleRequest) (OracleResponse, error) {
	return r.ServeContext(context.Background(), name, req)
}

// ServeContext is Serve bounded by ctx. ctx reaches plugin executions;
// local oracles run to completion.
func (r *OracleRegistry) ServeContext(ctx context.Context, name string, req OracleRequest) (OracleResponse, error) {
	o, err := r.lookupLocal(name)
	if errors.Is(err, ErrOracleNotFound) {
		if _, ok := r.plugin(name); ok {
			return r.servePlugin(ctx, name, req)
		}
	}
	if err != nil {
		return OracleResponse{}, err
	}

	var data []byte
	switch req.Operation {
	case OperationEncrypt, "":
		data, err = o.Encrypt(req.Input)
	case OperationEdit:
		e, ok := o.(EditOracle)
		if !ok {
			err = richError(ErrUnsupportedMode,
				goerrors.New(ErrCodeUnsupportedMode, "oracle does not support edit"))
			break
		}
		data, err = e.Edit(req.Ciphertext, req.Offset, req.Input)
	default:
		return OracleResponse{}, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Operation)
	}

	if err != nil {
		return OracleResponse{Success: false, Error: err.Error(), Code: errorCode(err)}, nil
	}
	return OracleResponse{Success: true, Data: data}, nil
}

func (r *OracleRegistry) servePlugin(ctx context.Context, name string, req OracleRequest) (OracleResponse, error) {
	switch req.Operation {
	case "":
		req.Operation = OperationEncrypt
	case OperationEncrypt, OperationEdit:
	default:
		return OracleResponse{}, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Operation)
	}
	if err := r.checkPluginHealth(name); err != nil {
		return OracleResponse{}, err
	}

	resp, err := r.pluginManager.Execute(ctx, name, req)
	if err != nil {
		return OracleResponse{Success: false, Error: err.Error(), Code: ErrCodeOracle}, nil
	}
	if !resp.Success && resp.Code == "" {
		resp.Code = ErrCodeOracle
	}
	return resp, nil
}

// pluginOracle adapts a plugin to Oracle and EditOracle.
type pluginOracle struct {
	registry *OracleRegistry
	name     string
	info     OracleInfo
}

func (p *pluginOracle) Encrypt(input []byte) ([]byte, error) {
	return p.call(OracleRequest{Operation: OperationEncrypt, Input: input})
}

func (p *pluginOracle) Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	return p.call(OracleRequest{Operation: OperationEdit, Input: plaintext, Ciphertext: ciphertext, Offset: offset})
}

func (p *pluginOracle) Deterministic() bool { return p.info.Deterministic }

func (p *pluginOracle) call(req OracleRequest) ([]byte, error) {
	resp, err := p.registry.ServeContext(context.Background(), p.name, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %w", ErrorForCode(resp.Code),
			goerrors.New(ErrCodeOracle, fmt.Sprintf("plugin %s: %s", p.name, resp.Error)))
	}
	return resp.Data, nil
}

// errorCode maps an error to the sentinel name used on the wire.
func errorCode(err error) string {
	for _, c := range wireCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ErrCodeOracle
}

// ErrorForCode returns the sentinel a wire code stands for, or
// ErrBrokenOracle for codes it does not know.
func ErrorForCode(code string) error {
	for _, c := range wireCodes {
		if c.code == code {
			return c.err
		}
	}
	return ErrBrokenOracle
}

var wireCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidOffset, ErrCodeInvalidOffset},
	{ErrUnsupportedMode, ErrCodeUnsupportedMode},
	{ErrInvalidBlockSize, ErrCodeInvalidBlock},
	{ErrInvalidKeySize, ErrCodeInvalidKey},
	{ErrRandomSource, ErrCodeRandom},
	{ErrLengthMismatch, ErrCodeLengthMismatch},
}

// Close unregisters every oracle, closes those implementing io.Closer and
// shuts the plugin manager down, which closes its plugins.
func (r *OracleRegistry) Close() error {
	r.mu.Lock()
	var errs []error
	for name, entry := range r.oracles {
		if c, ok := entry.oracle.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close oracle %s: %w", name, err))
			}
		}
	}
	r.oracles = make(map[string]registryEntry)
	r.defaultOracle = ""
	shutdown := r.pluginManager != nil && !r.pluginsDown
	r.pluginsDown = true
	r.mu.Unlock()

	if shutdown {
		timeout := r.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = DefaultPluginShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := r.pluginManager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down plugin manager: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close some oracles: %w", errors.Join(errs...))
	}
	return nil
}
