package main

import "github.com/pfrederiksen/happenr/internal/cli"

func main() {
	cli.Execute()
}
