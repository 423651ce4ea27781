// symcheck - terminal symptom checker
package main

import "github.com/ashureev/symcheck/internal/cli"

func main() {
	cli.Execute()
}
