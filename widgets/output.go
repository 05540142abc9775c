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

package widgets

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
)

const KindOutput = "widgets.Output"

// optWriter names the build option a test uses to capture Output's lines
// instead of letting them go to os.Stdout.
const optWriter = "writer"

func init() {
	component.Register(component.Descriptor{
		Kind:        KindOutput,
		Description: "writes each line received on IN, one per line, to the configured writer (os.Stdout by default)",
		InPorts:     []port.Spec{{Name: "IN", Direction: port.In, Type: TextType, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			w, _ := opts[optWriter].(io.Writer)
			if w == nil {
				w = os.Stdout
			}
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				return outputRun(ctx, ports, w)
			}), nil
		},
	})
}

func outputRun(ctx context.Context, ports *component.Ports, w io.Writer) error {
	for v := range ports.In("IN").IterContents(ctx) {
		line, _ := v.(string)
		fmt.Fprintln(w, line)
	}
	return nil
}
