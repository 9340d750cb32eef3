// Package schemagen infers structural schemas from sample JSON and XML
// documents, keys each schema by a fingerprint of the document's shape and
// the field policy that applies to it, and validates documents against the
// schema that fingerprint maps to.
//
// - A document is adapted into a format-neutral tree (package tree, adapters under source/).
// - The tree plus its policy (package policy) yield a fingerprint (package fingerprint).
// - The cache (package cache) returns the stored schema for the fingerprint or infers one (package infer).
// - The schema renders as JSON Schema draft-07 (package jsonschema) or XSD (package xsd).
// - The document is validated against the rendered schema (package validate).
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Errors are reported per document as *DocumentError; violations as Issues.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	cfg, err := policy.LoadConfig("config.yaml")
//	e := schemagen.New(schemagen.Options{Config: cfg, JSONSchemaDir: "json_schemas", XSDDir: "xsd"})
//	doc, err := schemagen.LoadDocument("samples/users.json")
//	res, err := e.Process(ctx, doc)
//	if err == nil && !res.Valid {
//		fmt.Println(res.Violations)
//	}
package schemagen
