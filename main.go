// SPDX-License-Identifier: MPL-2.0

// modswap is a CLI for building, inspecting, and listing swappable CUE
// symbol modules.
package main

import cmd "modswap/cmd/modswap"

func main() {
	cmd.Execute()
}
