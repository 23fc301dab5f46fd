package main

import (
	"fmt"
	"os"

	"github.com/taintgraph/droidtaint/cmd/mtanalyze/analyze"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		os.Exit(analyze.Run(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `mtanalyze — whole-program taint analysis for Android bytecode call graphs

Usage:
  mtanalyze analyze -input dir -rules rules.json [-source cfg-shard|go-module] [-output dir] [-hierarchy file] [-heuristics file] [-cache-dir dir] [-model-shards n] [-sequential] [-verbose]
  mtanalyze version`)
}
