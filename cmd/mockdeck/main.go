// mockdeck CLI entrypoint.
package main

import (
	"github.com/getmockd/mockdeck/pkg/cli"
)

func main() {
	cli.Execute()
}
