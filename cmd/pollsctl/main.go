package main

import "github.com/garnizeh/polls/cmd/pollsctl/commands"

var version = "dev"

func main() {
	commands.Execute(version)
}
