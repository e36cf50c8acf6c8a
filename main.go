package main

import "github.com/alicomputer/retail-pos/cmd"

func main() {
	cmd.Execute()
}
