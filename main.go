package main

import "realtor-extractor/cmd"

func main() {
	cmd.Execute()
}
