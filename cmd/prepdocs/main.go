// Command prepdocs indexes local documents into the search index and asks
// questions against it from the command line.
package main

func main() {
	Execute()
}
