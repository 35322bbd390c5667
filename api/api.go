// Package api carries the OpenAPI contract, embedded so the served document
// does not depend on the process working directory.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
