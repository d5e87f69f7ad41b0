//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package agui provides the ability to communicate with the front end through the AG-UI protocol.
package agui

import (
	"errors"
	"net/http"

	"github.com/agui-bridge/agui-run/runner"
	"github.com/agui-bridge/agui-run/service"
)

// Server provides AG-UI server.
type Server struct {
	path    string
	handler http.Handler
}

// New creates a AG-UI server instance wrapping a Run Orchestrator.
func New(r runner.Runner, opt ...Option) (*Server, error) {
	if r == nil {
		return nil, errors.New("agui: runner must not be nil")
	}
	opts := newOptions(opt...)
	if opts.serviceFactory == nil {
		return nil, errors.New("agui: serviceFactory must not be nil")
	}
	aguiService := opts.serviceFactory(r, service.WithPath(opts.path))
	return &Server{
		path:    opts.path,
		handler: aguiService.Handler(),
	}, nil
}

// Handler returns the http.Handler serving AG-UI requests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Path returns the route path for HTTP.
func (s *Server) Path() string {
	return s.path
}
