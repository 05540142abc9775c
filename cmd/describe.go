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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowd/flowd/component"
)

var describeCmd = &cobra.Command{
	Use:   "describe [kind]",
	Short: "Print a registered component kind's declared ports",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		desc, ok := component.Lookup(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown component kind %q\n", args[0])
			os.Exit(1)
		}
		fmt.Printf("%s: %s\n", desc.Kind, desc.Description)
		for _, p := range desc.InPorts {
			fmt.Printf("  in  %-10s %-12s required=%v\n", p.Name, p.Type.Name, p.Required)
		}
		for _, p := range desc.OutPorts {
			fmt.Printf("  out %-10s %-12s fanout=%v\n", p.Name, p.Type.Name, p.Fanout)
		}
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
