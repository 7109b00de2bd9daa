package main

import (
	"flag"
	"fmt"
	"os"

	"RedditScanner/internal/export"
)

func main() {
	input := flag.String("input_file", "reddit_contents.json", "JSON document written by redditscanner")
	flag.Parse()

	text, err := export.FileToText(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(text)
}
