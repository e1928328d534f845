// Fourthdown is an expected-value calculator for American football 4th-down
// decisions: go for it, kick a field goal, or punt.
//
// Usage:
//
//	# Evaluate one situation
//	fourthdown evaluate --yard-line 40 --yards-to-go 2
//
//	# Evaluate a CSV, JSON or XLSX file of situations
//	fourthdown batch --input plays.csv --output results.xlsx
//
//	# Serve the HTTP API
//	fourthdown serve
//
//	# Use alternate lookup tables for any command
//	fourthdown --lookups tuned.yaml evaluate --yard-line 70 --yards-to-go 4
package main

func main() {
	Execute()
}
