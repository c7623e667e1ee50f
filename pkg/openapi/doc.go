// Package openapi exposes the contracts used to derive form validators from
// OpenAPI 3 request bodies. The kin-openapi backed loader and parser live
// under internal/openapi; construct them through the root formbind package.
package openapi
