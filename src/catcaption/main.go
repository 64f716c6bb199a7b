package main

import "github.com/q-controller/catcaption/src/catcaption/cmd"

func main() {
	cmd.Execute()
}
