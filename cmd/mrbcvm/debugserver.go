// Copyright 2024 The mrbcvm Authors
// This file is part of the mrbcvm library.
//
// The mrbcvm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The mrbcvm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mrbcvm library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/mrbcvm/mrbcvm/vm"
)

// debugServer exposes a running Runtime's task list and allocator
// statistics over HTTP, plus a live websocket stream of task-state
// transitions — a cmd/ (host) concern entirely outside the core's scope,
// the way the teacher exposes node/peer state over its own RPC endpoints.
type debugServer struct {
	rt       *vm.Runtime
	upgrader websocket.Upgrader
}

func newDebugServer(rt *vm.Runtime) *debugServer {
	return &debugServer{
		rt: rt,
		// CheckOrigin is permissive: this is a localhost debug endpoint for
		// the demo host, not a production-facing API.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

func (d *debugServer) router() *httprouter.Router {
	r := httprouter.New()
	r.GET("/tasks", d.handleTasks)
	r.GET("/stats", d.handleStats)
	r.GET("/ws", d.handleStream)
	return r
}

func (d *debugServer) handleTasks(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, d.rt.Tasks())
}

func (d *debugServer) handleStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, d.rt.Heap.Pool.Stats())
}

// handleStream upgrades to a websocket, polls the task list every 100ms, and
// pushes it only when it differs from the last frame sent — a simple
// poll-and-diff in place of a dedicated event bus, since sched.Scheduler
// has no subscriber hook of its own (spec.md §4.4 doesn't ask for one).
func (d *debugServer) handleStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var last []vm.TaskInfo
	for range ticker.C {
		cur := d.rt.Tasks()
		if reflect.DeepEqual(cur, last) {
			continue
		}
		last = cur
		if err := conn.WriteJSON(cur); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
