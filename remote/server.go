// server.go: HTTP transport for an oracle registry.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/agilira/pythia"
)

// DefaultMaxBodyBytes bounds request bodies when ServerConfig leaves it 0.
const DefaultMaxBodyBytes = 1 << 20

// ServerConfig configures a Server. The zero value is usable.
type ServerConfig struct {
	MaxBodyBytes int64        // Request body limit
	Logger       *slog.Logger // Nil discards
}

// Server exposes the oracles of a registry over HTTP:
//
//	GET  /oracles               list of OracleInfo
//	GET  /oracles/{name}        one OracleInfo
//	POST /oracles/{name}/encrypt
//	POST /oracles/{name}/edit
//
// POST bodies and replies are JSON OracleRequest and OracleResponse.
type Server struct {
	registry *pythia.OracleRegistry
	router   *mux.Router
	maxBody  int64
	logger   *slog.Logger
}

// NewServer builds the router for registry. config may be nil.
func NewServer(registry *pythia.OracleRegistry, config *ServerConfig) *Server {
	var cfg ServerConfig
	if config != nil {
		cfg = *config
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		registry: registry,
		router:   mux.NewRouter(),
		maxBody:  cfg.MaxBodyBytes,
		logger:   cfg.Logger.With("component", "oracle-server"),
	}
	s.router.HandleFunc("/oracles", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/oracles/{name}", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/oracles/{name}/encrypt", s.handleOperation(pythia.OperationEncrypt)).Methods(http.MethodPost)
	s.router.HandleFunc("/oracles/{name}/edit", s.handleOperation(pythia.OperationEdit)).Methods(http.MethodPost)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	infos := make([]pythia.OracleInfo, 0, len(names))
	for _, name := range names {
		info, err := s.registry.Info(name)
		if err != nil {
			// Unregistered between Names and Info.
			continue
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	info, err := s.registry.Info(name)
	if err != nil {
		s.writeError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleOperation(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]

		var req pythia.OracleRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, pythia.OracleResponse{Error: "invalid request body", Code: CodeBadRequest})
			return
		}
		req.Operation = operation

		resp, err := s.registry.ServeContext(r.Context(), name, req)
		if err != nil {
			s.writeError(w, name, err)
			return
		}
		status := http.StatusOK
		if !resp.Success {
			status = http.StatusUnprocessableEntity
			s.logger.Debug("oracle rejected request", "oracle", name, "operation", operation, "code", resp.Code)
		}
		writeJSON(w, status, resp)
	}
}

// writeError reports a registry level failure.
func (s *Server) writeError(w http.ResponseWriter, name string, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, pythia.ErrOracleNotFound):
		status, code = http.StatusNotFound, CodeNotFound
	case errors.Is(err, pythia.ErrOracleUnhealthy):
		status, code = http.StatusServiceUnavailable, CodeUnhealthy
	case errors.Is(err, pythia.ErrUnknownOperation):
		status, code = http.StatusBadRequest, CodeBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("oracle request failed", "oracle", name, "error", err)
	}
	writeJSON(w, status, pythia.OracleResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
