package main

import (
	"log"

	"bookshelf/internal/app"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	a, err := app.NewApp(GitCommit, GitTag, BuildTime)
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = a.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details. ", err)
	}
}
