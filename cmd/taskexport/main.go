package main

import "github.com/tasknest/go-task-export/services/exporter/cli"

func main() {
	cli.Execute()
}
