package main

import "tilesweep/cmd"

func main() {
	cmd.Execute()
}
