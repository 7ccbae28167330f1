package main

import "github.com/skosovsky/reservy/internal/cli"

func main() {
	cli.Execute()
}
