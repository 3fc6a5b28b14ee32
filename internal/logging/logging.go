package logging

import (
	"log"
	"os"
)

// Init sends the standard logger to stdout with microsecond timestamps
func Init(prefix string) {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if prefix != "" {
		log.SetPrefix("[" + prefix + "] ")
	}
}
