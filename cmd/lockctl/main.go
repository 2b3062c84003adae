package main

import "github.com/pixperk/lockcache/cmd/lockctl/commands"

func main() {
	commands.Execute()
}
