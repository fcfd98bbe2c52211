// Package main is the entry point for minapi.
package main

func main() {
	Execute()
}
