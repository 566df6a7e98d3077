package main

import "github.com/mvp-joe/sigmap/internal/cli"

func main() {
	cli.Execute()
}
