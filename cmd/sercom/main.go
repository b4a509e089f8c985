package main

import "github.com/allbin/sercom/internal/cli"

func main() {
	cli.Execute()
}
