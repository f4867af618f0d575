// Command importctl previews and imports bank statements into a local
// SQLite database.
package main

import "github.com/FACorreiaa/echo-import/internal/commands"

func main() {
	commands.Execute()
}
