package main

import "github.com/curhatin/curhatin/cmd"

func main() {
	cmd.Execute()
}
