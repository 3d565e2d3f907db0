package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           terrariumd API
// @version         1.0
// @description     HTTP API for terrarium supervision: status, safety alerts, and the emergency stop latch.
//
// @contact.name   terrariumd maintainers
// @contact.url    https://github.com/your-org/terrariumd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
