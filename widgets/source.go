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

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
)

const KindSource = "widgets.Source"

func init() {
	component.Register(component.Descriptor{
		Kind:        KindSource,
		Description: "reads a single line from IN, typically a one-shot IIP, and republishes it on OUT",
		InPorts:     []port.Spec{{Name: "IN", Direction: port.In, Type: TextType, Required: true}},
		OutPorts:    []port.Spec{{Name: "OUT", Direction: port.Out, Type: TextType}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(sourceRun), nil
		},
	})
}

func sourceRun(ctx context.Context, ports *component.Ports) error {
	out := ports.Out("OUT")
	defer out.Close()

	line, err := ports.In("IN").ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}
	return out.Send(ctx, line)
}
