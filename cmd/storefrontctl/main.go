package main

import "anoa.com/storefront/internal/cli"

func main() {
	cli.Execute()
}
