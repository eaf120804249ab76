package domain

// SourceType defines the format a schema registry is loaded from.
type SourceType string

const (
	SourceTypeFile    SourceType = "file"    // YAML/JSON registry documents
	SourceTypeOpenAPI SourceType = "openapi" // OpenAPI 3 components.schemas
	SourceTypeProto   SourceType = "proto"   // .proto source files
	SourceTypeGRPC    SourceType = "grpc"    // live server reflection
)
