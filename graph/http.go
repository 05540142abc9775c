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

package graph

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/flowd/flowd/control"
	"github.com/flowd/flowd/server"
)

// RegisterRoutes hangs a single full-graph introspection route off srv:
// GET /graph returns s's entire Description as JSON. Kept separate from
// control.Surface's own routes so this package, which imports control,
// does not create an import cycle back into it.
func RegisterRoutes(srv *server.Server, s *control.Surface) {
	srv.RegisterGetRoute("/graph", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Describe(s))
	})
}
