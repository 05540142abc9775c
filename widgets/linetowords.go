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
	"strings"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
)

const KindLineToWords = "widgets.LineToWords"

func init() {
	component.Register(component.Descriptor{
		Kind:        KindLineToWords,
		Description: "splits each line received on IN into individual words sent on OUT",
		InPorts:     []port.Spec{{Name: "IN", Direction: port.In, Type: TextType, Required: true}},
		OutPorts:    []port.Spec{{Name: "OUT", Direction: port.Out, Type: TextType}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(lineToWordsRun), nil
		},
	})
}

func lineToWordsRun(ctx context.Context, ports *component.Ports) error {
	in, out := ports.In("IN"), ports.Out("OUT")
	defer out.Close()

	for v := range in.IterContents(ctx) {
		line, _ := v.(string)
		for _, word := range strings.Fields(line) {
			if err := out.Send(ctx, word); err != nil {
				return err
			}
		}
	}
	return nil
}
