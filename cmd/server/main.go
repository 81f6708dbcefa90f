package main

import (
	"os"

	"relay-chat/internal/app"
)

// @title           Relay Chat API
// @version         1.0
// @description     Chat front-end relaying conversations to a remote workspace chat service.
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
