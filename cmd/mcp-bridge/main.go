package main

import (
	"log"
	"os"

	"github.com/viant/mcp-bridge/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
