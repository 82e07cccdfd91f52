package main

import "github.com/scrapeworks/harvester/internal/cmd"

func main() {
	cmd.Execute()
}
