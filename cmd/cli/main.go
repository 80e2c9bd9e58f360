// verixfer - xferlog transfer log validator
//
// verixfer reads FTP transfer logs in the xferlog format and reports every
// line that does not conform, with the number of the first failing field.
package main

import (
	"os"

	"github.com/ccollicutt/verixfer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
