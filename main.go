// SPDX-License-Identifier: MPL-2.0

package main

import cmd "nugo-cli/cmd/nugo"

func main() {
	cmd.Execute()
}
