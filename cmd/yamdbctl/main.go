// Command yamdbctl runs maintenance tasks against the configured store.
package main

func main() {
	Execute()
}
