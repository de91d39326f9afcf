package main

import (
	"shuttle/internal/cli/cmd"
	"shuttle/internal/config"
)

func main() {
	port := config.GetPort()
	cmd.Execute(port)
}
