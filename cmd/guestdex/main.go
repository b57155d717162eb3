package main

import "guestdex/internal/cli"

func main() {
	cli.Execute()
}
