package main

import "oppaware/cmd"

func main() {
	cmd.Execute()
}
