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
	"strconv"
	"strings"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
)

const KindWordsToLine = "widgets.WordsToLine"

func init() {
	component.Register(component.Descriptor{
		Kind:        KindWordsToLine,
		Description: "regroups words received on IN into lines of MEASURE words each, or one word per line if MEASURE is 0",
		InPorts: []port.Spec{
			{Name: "IN", Direction: port.In, Type: TextType, Required: true},
			{Name: "MEASURE", Direction: port.In, Type: IntType, Required: true},
		},
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: TextType}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(wordsToLineRun), nil
		},
	})
}

func wordsToLineRun(ctx context.Context, ports *component.Ports) error {
	in, out := ports.In("IN"), ports.Out("OUT")
	defer out.Close()

	raw, err := ports.In("MEASURE").ReceiveOnce(ctx)
	if err != nil {
		return err
	}
	measure := parseMeasure(raw)

	flushAt := measure
	if flushAt <= 0 {
		flushAt = 1
	}

	var buf []string
	for v := range in.IterContents(ctx) {
		word, _ := v.(string)
		buf = append(buf, word)
		if len(buf) == flushAt {
			if err := out.Send(ctx, strings.Join(buf, " ")); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		if err := out.Send(ctx, strings.Join(buf, " ")); err != nil {
			return err
		}
	}
	return nil
}

func parseMeasure(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}
