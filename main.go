package main

import "tubeqa/cmd"

func main() {
	cmd.Execute()
}
