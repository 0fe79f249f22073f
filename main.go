package main

import "github.com/listingpress/listingpress/cmd"

func main() {
	cmd.Execute()
}
