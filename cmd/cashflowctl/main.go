package main

import "cashflow/internal/commands"

func main() {
	commands.Execute()
}
