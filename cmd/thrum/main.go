package main

import "github.com/rdow/thrum/internal/cli"

func main() {
	cli.Execute()
}
