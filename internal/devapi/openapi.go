package devapi

import _ "embed"

// OpenAPISpec describes the REST surface served by the development server.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
