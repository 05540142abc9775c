// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package control

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/internal/sigs"
	"github.com/flowd/flowd/network"
	"github.com/flowd/flowd/server"
)

// eventQueueSize is how deep a streamed subscriber's buffer is allowed to
// grow before push-or-drop semantics kick in. Scaled by the machine's
// concurrency the same way the rest of the stack sizes its fan-out
// buffers, since a busier host both emits and drains events faster.
var eventQueueSize = common.Concurrency() * 4

var (
	errStreamingUnsupported   = errors.New("control: response writer does not support streaming")
	errMetricsStorageDisabled = errors.New("control: metrics storage is disabled")
)

// RegisterRoutes hangs the control surface's JSON routes off an already
// constructed server.Server. Route set: add_component, remove_component,
// connect, disconnect, initialize, uninitialize, list_iips, validate, run,
// terminate, status, list_components, list_kinds, list_connections,
// describe_component, a streaming event feed, metrics storage exposition,
// and reload.
func (s *Surface) RegisterRoutes(srv *server.Server) {
	srv.RegisterPostRoute("/components", s.handleAddComponent)
	srv.RegisterPostRoute("/components/{name}/remove", s.handleRemoveComponent)
	srv.RegisterGetRoute("/components", s.handleListComponents)
	srv.RegisterGetRoute("/kinds", s.handleListKinds)
	srv.RegisterGetRoute("/kinds/{kind}", s.handleDescribeComponent)

	srv.RegisterPostRoute("/connections", s.handleConnect)
	srv.RegisterPostRoute("/connections/disconnect", s.handleDisconnect)
	srv.RegisterGetRoute("/connections", s.handleListConnections)

	srv.RegisterPostRoute("/iips", s.handleInitialize)
	srv.RegisterGetRoute("/iips", s.handleListIIPs)
	srv.RegisterPostRoute("/iips/uninitialize", s.handleUninitialize)

	srv.RegisterPostRoute("/validate", s.handleValidate)
	srv.RegisterPostRoute("/run", s.handleRun)
	srv.RegisterPostRoute("/terminate", s.handleTerminate)
	srv.RegisterGetRoute("/status", s.handleStatus)

	srv.RegisterGetRoute("/events", s.handleEvents)
	srv.RegisterGetRoute("/metrics/storage", s.handleMetricsStorage)
	srv.RegisterPostRoute("/reload", s.handleReload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Surface) handleAddComponent(w http.ResponseWriter, r *http.Request) {
	var req AddComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.AddComponent(req); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Surface) handleRemoveComponent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.RemoveComponent(name); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Surface) handleListComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ListComponents())
}

func (s *Surface) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ListKinds())
}

func (s *Surface) handleDescribeComponent(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	desc, err := s.DescribeComponent(kind)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Surface) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Connect(req); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Surface) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Src network.PortRef `json:"src"`
		Dst network.PortRef `json:"dst"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Disconnect(req.Src, req.Dst); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Surface) handleListConnections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ListConnections())
}

func (s *Surface) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dst   network.PortRef `json:"dst"`
		Value any              `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Initialize(req.Dst, req.Value); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Surface) handleListIIPs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ListIIPs())
}

func (s *Surface) handleUninitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dst network.PortRef `json:"dst"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Uninitialize(req.Dst); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Surface) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Surface) handleRun(w http.ResponseWriter, r *http.Request) {
	// Not r.Context(): that is cancelled as soon as this handler returns,
	// and the run outlives the request.
	if err := s.Run(context.Background()); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Surface) handleTerminate(w http.ResponseWriter, r *http.Request) {
	s.Terminate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminating"})
}

func (s *Surface) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, components := s.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":         state.String(),
		"components":    components,
		"build":         common.GetBuildInfo(),
		"uptimeSeconds": time.Now().Unix() - common.Started(),
	})
}

// handleEvents streams newline-delimited JSON events to the caller until
// the request is cancelled or the connection breaks. Each event is
// flushed as soon as it is published, so a long-lived GET acts as a
// simple push feed without needing a websocket upgrade.
func (s *Surface) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errStreamingUnsupported)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	q := s.Subscribe(eventQueueSize)
	defer s.Unsubscribe(q)

	enc := json.NewEncoder(w)
	for {
		if r.Context().Err() != nil {
			return
		}
		msg, ok := q.PopTimeout(time.Second)
		if !ok {
			continue
		}
		if err := enc.Encode(msg); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Surface) handleMetricsStorage(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusNotFound, errMetricsStorageDisabled)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.WritePrometheus(w)
}

// handleReload signals this process's own SIGHUP, the same reload path
// an operator's `kill -HUP` triggers, so a config change can be rolled
// out over HTTP without shell access to the host running flowd.
func (s *Surface) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := sigs.SelfReload(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloading"})
}
