package main

import "github.com/fathom-dev/fathom/internal/cli"

func main() {
	cli.Execute()
}
