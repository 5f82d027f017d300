package main

// Version is set at build time via -ldflags
var Version = "0.1.0"

func main() {
	execute()
}
