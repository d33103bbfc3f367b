package main

import (
	"github.com/exonum/cryptocurrency/components/app"
)

func main() {
	app.App().Run()
}
