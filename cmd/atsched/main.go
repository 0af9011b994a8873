package main

import "github.com/example/talent-scheduler/internal/cli"

func main() {
	cli.Execute()
}
