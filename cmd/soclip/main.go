package main

import "github.com/itzleon156-collab/So-clip/internal/cli"

func main() {
	cli.Main()
}
