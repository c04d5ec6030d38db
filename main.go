package main

import "github.com/codetrust-ai/codetrust-api/cmd"

func main() {
	cmd.Execute()
}
