package main

import (
	"github.com/marcelo-dos-santos/walmart-codes/cmd"
)

func main() {
	cmd.Execute()
}
