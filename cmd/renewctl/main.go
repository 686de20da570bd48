// Command renewctl prices, quotes and renews vehicle insurance policies
// from the terminal.
package main

import (
	"os"

	"github.com/warp/renewal-engine/cli"
)

func main() {
	os.Exit(cli.Execute())
}
