package main

import (
	"github.com/BioHazard786/camdrop/cmd"
	"github.com/BioHazard786/camdrop/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
