package main

import "github.com/linesmerrill/taskboard-api/cmd"

func main() {
	cmd.Execute()
}
