package main

import (
	"log"
	"os"
	stdos "os"
)

func main() {
	defer func() {
		os.Exit(3) // замыкание не проверяется
	}()

	os.Exit(1)            // want "вызов os.Exit в функции main запрещён"
	stdos.Exit(2)         // want "вызов os.Exit в функции main запрещён"
	log.Fatal("boom")     // want "вызов log.Fatal в функции main запрещён"
	log.Fatalf("%d", 1)   // want "вызов log.Fatalf в функции main запрещён"
	log.Fatalln("bye")    // want "вызов log.Fatalln в функции main запрещён"
	log.New(os.Stderr, "", 0).Fatal("method is allowed")
	helper()
}

func helper() {
	os.Exit(4)
}
