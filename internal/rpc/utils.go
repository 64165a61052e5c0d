package rpc

import (
	"log"
	"os"
)

func info(args ...any) {
	if os.Getenv("INFO") == "1" || os.Getenv("DEBUG") == "1" {
		log.Println(args...)
	}
}

func debug(args ...any) {
	if os.Getenv("DEBUG") == "1" {
		log.Println(args...)
	}
}
