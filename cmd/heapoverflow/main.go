// Command heapoverflow runs the help-desk bot and its operator tooling.
package main

import "github.com/mesh-intelligence/heapoverflow/internal/cli"

func main() {
	cli.Execute()
}
