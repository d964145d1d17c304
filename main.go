package main

import "github.com/Manu343726/binlang/cmd"

func main() {
	cmd.Execute()
}
