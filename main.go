package main

import (
	"os"

	"github.com/Jiyoung0219/doc2plan-coach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
