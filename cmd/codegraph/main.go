package main

import (
	"github.com/mvp-joe/project-cortex/internal/cli"
)

func main() {
	cli.Execute()
}
