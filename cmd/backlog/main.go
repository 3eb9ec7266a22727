// Command backlog tracks products and the tasks moving through their
// workflow.
package main

import "github.com/mesh-intelligence/backlog/internal/cli"

func main() {
	cli.Execute()
}
