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

const KindStartsWith = "widgets.StartsWith"

func init() {
	component.Register(component.Descriptor{
		Kind:        KindStartsWith,
		Description: "tests each word received on IN against the prefix delivered once on TEST, routing matches to OUT and everything else to REJ",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: TextType, Required: true},
			{Name: "TEST", Direction: port.In, Type: TextType, Required: true},
		},
		OutPorts: []port.Spec{
			{Name: "OUT", Direction: port.Out, Type: TextType},
			{Name: "REJ", Direction: port.Out, Type: TextType},
		},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(startsWithRun), nil
		},
	})
}

func startsWithRun(ctx context.Context, ports *component.Ports) error {
	in, out, rej := ports.In("IN"), ports.Out("OUT"), ports.Out("REJ")
	defer out.Close()
	defer rej.Close()

	prefix, err := ports.In("TEST").ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	test, _ := prefix.(string)

	for v := range in.IterContents(ctx) {
		word, _ := v.(string)
		dst := rej
		if strings.HasPrefix(word, test) {
			dst = out
		}
		if !dst.Connected(0) {
			continue
		}
		if err := dst.Send(ctx, word); err != nil {
			return err
		}
	}
	return nil
}
