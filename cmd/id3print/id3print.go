package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"

	id3tag "github.com/kbuffington/node-id3tag"
)

var raw = flag.Bool("raw", false, "dump the raw frame view")

func printFile(name string) {
	fmt.Println(name)
	buf, err := os.ReadFile(name)
	if err != nil {
		log.Fatal(err)
	}

	if !id3tag.Check(buf) {
		log.Println("no ID3 tag")
		return
	}

	tag, err := id3tag.Decode(buf)
	if err != nil {
		fmt.Println(err)
		return
	}

	if *raw {
		spew.Dump(tag.Raw())
		return
	}

	fields := tag.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s: %v\n", name, fields[name])
	}
}

func main() {
	flag.Parse()
	for _, name := range flag.Args() {
		printFile(name)
		fmt.Println()
	}
}
