package main

import (
	"backtest-catalog/cmd"
	"log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("backtest-catalog: %v", err)
	}
}
