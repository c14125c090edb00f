package main

import "github.com/iksnae/agentsync/cmd"

func main() {
	cmd.Execute()
}
