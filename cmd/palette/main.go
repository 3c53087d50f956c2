// Command palette runs a command palette over YAML/JSON action definitions:
// as a line runner, a full-screen TUI, an HTTP API or an MCP server.
package main

func main() {
	Execute()
}
