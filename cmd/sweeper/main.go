// Command sweeper cleans and converts CSV and Excel files from the shell.
package main

import (
	"os"

	"github.com/JonMunkholm/DataSweeper/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
