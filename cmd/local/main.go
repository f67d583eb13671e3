package main

import "hello-world-aws/internal/cmd"

func main() {
	cmd.Execute()
}
