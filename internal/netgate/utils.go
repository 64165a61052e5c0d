package netgate

import (
	"log"
	"os"
)

func debug(args ...any) {
	if os.Getenv("DEBUG") == "1" {
		log.Println(args...)
	}
}
