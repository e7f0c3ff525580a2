package main

import (
	"log"

	tool "github.com/agora-forum/agora/internal/tools/obscheck"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
