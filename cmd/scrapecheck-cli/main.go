// Package main provides the scrapecheck command-line tool.
//
// Offline commands work on saved snapshots and robots.txt files without a
// server. The analyze and batch commands call a running scrapecheck API.
//
// Usage:
//
//	scrapecheck-cli recommend snapshot.json
//	scrapecheck-cli robots robots.txt
//	scrapecheck-cli analyze https://example.com
package main

func main() {
	Execute()
}
