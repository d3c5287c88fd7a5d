package main

import "github.com/tessro/cadence/internal/cli"

func main() {
	cli.Execute()
}
