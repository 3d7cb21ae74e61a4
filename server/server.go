//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the execution runtime over HTTP: launching
// executions, streaming their events as SSE, answering interactive prompts
// and cancelling runs.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/event"
	"trpc.group/trpc-go/dipeo/exec"
	"trpc.group/trpc-go/dipeo/log"
	"trpc.group/trpc-go/dipeo/service"
)

// Server routes execution requests onto engines and bridges the event
// fabric to SSE clients.
type Server struct {
	router   *mux.Router
	handlers *exec.Registry
	bus      *event.Bus
	events   *event.Router
	services *service.Set
	store    service.MessageStore

	mu       sync.RWMutex
	diagrams map[diagram.DiagramID]*diagram.ExecutableDiagram
	running  map[diagram.ExecutionID]context.CancelFunc

	engineOpts []exec.Option
}

// Option configures the Server.
type Option func(*Server)

// WithMessageStore enables the history endpoint over the given store.
func WithMessageStore(store service.MessageStore) Option {
	return func(s *Server) { s.store = store }
}

// WithEngineOptions appends engine options applied to every execution.
func WithEngineOptions(opts ...exec.Option) Option {
	return func(s *Server) { s.engineOpts = append(s.engineOpts, opts...) }
}

// New creates a server over the shared runtime pieces.
func New(handlers *exec.Registry, bus *event.Bus, events *event.Router,
	services *service.Set, opts ...Option) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: handlers,
		bus:      bus,
		events:   events,
		services: services,
		diagrams: make(map[diagram.DiagramID]*diagram.ExecutableDiagram),
		running:  make(map[diagram.ExecutionID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Register adds a compiled diagram available for execution.
func (s *Server) Register(d *diagram.ExecutableDiagram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagrams[d.Metadata.ID] = d
}

// Handler returns the HTTP handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Infof("execution server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/diagrams", s.handleListDiagrams).Methods(http.MethodGet)
	s.router.HandleFunc("/api/executions", s.handleStart).Methods(http.MethodPost)
	s.router.HandleFunc("/api/executions/{id}/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/executions/{id}/logs", s.handleLogs).Methods(http.MethodGet)
	s.router.HandleFunc("/api/executions/{id}/respond", s.handleRespond).Methods(http.MethodPost)
	s.router.HandleFunc("/api/executions/{id}/cancel", s.handleCancel).Methods(http.MethodPost)
	s.router.HandleFunc("/api/executions/{id}/history", s.handleHistory).Methods(http.MethodGet)
}

type startRequest struct {
	DiagramID diagram.DiagramID `json:"diagram_id"`
	Variables map[string]any    `json:"variables,omitempty"`
}

type startResponse struct {
	ExecutionID diagram.ExecutionID `json:"execution_id"`
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]diagram.Metadata, 0, len(s.diagrams))
	for _, d := range s.diagrams {
		out = append(out, d.Metadata)
	}
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

// handleStart launches an execution and returns immediately; clients follow
// progress over the events stream.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	s.mu.RLock()
	d, ok := s.diagrams[req.DiagramID]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, fmt.Sprintf("unknown diagram %q", req.DiagramID), http.StatusNotFound)
		return
	}

	execID := diagram.ExecutionID(uuid.NewString())
	opts := append([]exec.Option{exec.WithExecutionID(execID)}, s.engineOpts...)
	engine, err := exec.NewEngine(d, s.handlers, s.bus, s.services, opts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// The run outlives the HTTP request; it is bound to its own context.
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[execID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.running, execID)
			s.mu.Unlock()
			cancel()
		}()
		if _, err := engine.Run(ctx, req.Variables); err != nil {
			log.Errorf("execution %s: %v", execID, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, startResponse{ExecutionID: execID})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	execID := diagram.ExecutionID(mux.Vars(r)["id"])
	s.streamSSE(w, r, s.events.Subscribe(execID))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	execID := diagram.ExecutionID(mux.Vars(r)["id"])
	s.streamSSE(w, r, s.events.ExecutionLogs(execID))
}

// streamSSE forwards a subscription as server-sent events until the client
// disconnects or the stream ends.
func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request, sub *event.Subscription) {
	defer sub.Cancel()
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				log.Errorf("marshal sse event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

type respondRequest struct {
	NodeID diagram.NodeID `json:"node_id"`
	Value  any            `json:"value"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	execID := diagram.ExecutionID(mux.Vars(r)["id"])
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !s.events.Respond(execID, req.NodeID, req.Value) {
		http.Error(w, "no pending prompt for node", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	execID := diagram.ExecutionID(mux.Vars(r)["id"])
	s.mu.RLock()
	cancel, ok := s.running[execID]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "execution not running", http.StatusNotFound)
		return
	}
	cancel()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "history store not configured", http.StatusNotImplemented)
		return
	}
	execID := diagram.ExecutionID(mux.Vars(r)["id"])
	events, err := s.store.Query(r.Context(), execID, 0, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
