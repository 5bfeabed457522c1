// Command tablekit stores, serves and browses sortable, paginated tables.
package main

import "github.com/mesh-intelligence/tablekit/internal/cli"

func main() {
	cli.Execute()
}
