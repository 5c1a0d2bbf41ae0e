package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ayo6706/payment-notification/internal/app"
)

func main() {
	showVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(app.Version)
		return
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "payment-notification: %v\n", err)
		os.Exit(1)
	}
}
