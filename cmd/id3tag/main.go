package main

import (
	"fmt"
	"log"
	"os"

	id3tag "github.com/kbuffington/node-id3tag"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: id3tag <file> <title> <artist>...")
		os.Exit(2)
	}

	id3tag.Logging = true
	file, err := id3tag.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	file.Tag.SetTitle(os.Args[2])
	file.Tag.SetArtists(os.Args[3:])

	if err := file.Save(); err != nil {
		log.Fatal(err)
	}
}
