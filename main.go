// Command automata runs the AUTOMATA texture webhook node.
package main

import (
	"os"

	"github.com/dudumaluf/BOT-TextureGen/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
