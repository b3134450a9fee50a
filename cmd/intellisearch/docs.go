package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           IntelliSearch API
// @version         1.0
// @description     Stateless relay that answers natural-language questions through a hosted LLM.
//
// @contact.name   IntelliSearch maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
