package main

import (
	"github.com/replicatedhq/chartsmith-preview/cmd"
)

func main() {
	cmd.Execute()
}
