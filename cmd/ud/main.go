// Command ud is an offline-first command-line client for a remote user
// directory. Reads are served from a local snapshot cache when warm
// and fetched from the remote otherwise; every mutation is written
// through to the cache so state survives between invocations.
package main

func main() {
	Execute()
}
