package main

import "github.com/oggyb/model-agency/cmd/agencyctl/commands"

func main() {
	commands.Execute()
}
