package main

import (
	"log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/cmd/trudy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	trudy.Execute()
}
