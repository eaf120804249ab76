// Package protodef converts protobuf descriptors into registry entries. Field
// types follow the protobuf JSON mapping: 64-bit integers and bytes are
// strings, well-known types map to their JSON forms, and every field without
// the proto2 required label is optional.
package protodef

import (
	"sort"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
)

// Files whose path starts with one of these are never converted.
var skippedPrefixes = []string{"google/protobuf/", "grpc/reflection/"}

func skipped(f *desc.FileDescriptor) bool {
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(f.GetName(), p) {
			return true
		}
	}
	return false
}

// Collect returns roots followed by their transitive dependencies, each file
// once, dependencies in breadth-first order.
func Collect(roots ...*desc.FileDescriptor) []*desc.FileDescriptor {
	seen := map[string]bool{}
	var out []*desc.FileDescriptor
	queue := append([]*desc.FileDescriptor(nil), roots...)
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f == nil || seen[f.GetName()] {
			continue
		}
		seen[f.GetName()] = true
		out = append(out, f)
		queue = append(queue, f.GetDependencies()...)
	}
	return out
}

// Entries converts every message and enum of files. Within a file, each
// message is followed by its nested types, then top-level enums follow.
func Entries(files []*desc.FileDescriptor) []domain.Entry {
	var entries []domain.Entry
	for _, f := range files {
		if f == nil || skipped(f) {
			continue
		}
		for _, m := range f.GetMessageTypes() {
			entries = appendMessage(entries, m)
		}
		for _, e := range f.GetEnumTypes() {
			entries = append(entries, enumEntry(e))
		}
	}
	return entries
}

// SortedFiles orders files by path.
func SortedFiles(files []*desc.FileDescriptor) []*desc.FileDescriptor {
	out := append([]*desc.FileDescriptor(nil), files...)
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// EntryName derives a registry name from a fully qualified protobuf name by
// dropping the package and joining nested names: shop.v1.Order.Item is
// OrderItem.
func EntryName(d desc.Descriptor) string {
	name := d.GetFullyQualifiedName()
	if pkg := d.GetFile().GetPackage(); pkg != "" {
		name = strings.TrimPrefix(name, pkg+".")
	}
	return strings.ReplaceAll(name, ".", "")
}

func categoryOf(name string) domain.Category {
	if strings.HasSuffix(name, "Error") {
		return domain.CategoryErrors
	}
	return domain.CategoryTypes
}

func appendMessage(entries []domain.Entry, m *desc.MessageDescriptor) []domain.Entry {
	if m.IsMapEntry() {
		return entries
	}
	name := EntryName(m)
	entries = append(entries, domain.Entry{Name: name, Category: categoryOf(name), Value: message(m)})
	for _, nested := range m.GetNestedMessageTypes() {
		entries = appendMessage(entries, nested)
	}
	for _, e := range m.GetNestedEnumTypes() {
		entries = append(entries, enumEntry(e))
	}
	return entries
}

func enumEntry(e *desc.EnumDescriptor) domain.Entry {
	values := make([]string, 0, len(e.GetValues()))
	for _, v := range e.GetValues() {
		values = append(values, v.GetName())
	}
	name := EntryName(e)
	return domain.Entry{Name: name, Category: categoryOf(name), Value: typedef.Enum(values...)}
}

func message(m *desc.MessageDescriptor) *typedef.Def {
	props := make([]typedef.Property, 0, len(m.GetFields()))
	for _, f := range m.GetFields() {
		d := field(f)
		if !f.IsRequired() {
			d = d.Optional()
		}
		props = append(props, typedef.Prop(f.GetJSONName(), d))
	}
	return typedef.Object(props...)
}

func field(f *desc.FieldDescriptor) *typedef.Def {
	if f.IsMap() {
		return typedef.Record(scalar(f.GetMapValueType()))
	}
	if f.IsRepeated() {
		return typedef.Array(scalar(f))
	}
	return scalar(f)
}

// scalar converts the element type of f, ignoring its cardinality.
func scalar(f *desc.FieldDescriptor) *typedef.Def {
	switch f.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_STRING, descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return typedef.String()
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return typedef.Boolean()
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return typedef.Number()
	case descriptorpb.FieldDescriptorProto_TYPE_INT32, descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32, descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return typedef.Number().Int()
	case descriptorpb.FieldDescriptorProto_TYPE_INT64, descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64, descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return typedef.String()
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		e := f.GetEnumType()
		if e.GetFullyQualifiedName() == "google.protobuf.NullValue" {
			return typedef.Null()
		}
		return typedef.LazyRef(EntryName(e))
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		m := f.GetMessageType()
		if d, ok := wellKnown(m.GetFullyQualifiedName()); ok {
			return d
		}
		return typedef.LazyRef(EntryName(m))
	}
	return &typedef.Def{Kind: typedef.Kind(strings.ToLower(f.GetType().String()))}
}

func wellKnown(name string) (*typedef.Def, bool) {
	switch name {
	case "google.protobuf.Timestamp":
		return typedef.String().DateTime(), true
	case "google.protobuf.Duration", "google.protobuf.FieldMask":
		return typedef.String(), true
	case "google.protobuf.Struct":
		return typedef.Record(typedef.Any()), true
	case "google.protobuf.Value", "google.protobuf.Any":
		return typedef.Any(), true
	case "google.protobuf.ListValue":
		return typedef.Array(typedef.Any()), true
	case "google.protobuf.Empty":
		return typedef.Object(), true
	case "google.protobuf.DoubleValue", "google.protobuf.FloatValue":
		return typedef.Number().Nullable(), true
	case "google.protobuf.Int32Value", "google.protobuf.UInt32Value":
		return typedef.Number().Int().Nullable(), true
	case "google.protobuf.Int64Value", "google.protobuf.UInt64Value",
		"google.protobuf.StringValue", "google.protobuf.BytesValue":
		return typedef.String().Nullable(), true
	case "google.protobuf.BoolValue":
		return typedef.Boolean().Nullable(), true
	}
	return nil, false
}
