// Command catalogctl inspects and maintains the device catalog from the
// command line. It reads the same environment (and .env file) as the server.
package main

func main() {
	Execute()
}
