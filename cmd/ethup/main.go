// Command ethup installs, runs and inspects a reth + lighthouse node pair.
package main

func main() {
	Execute()
}
