package plugin

// Helpers for building Schema values declaratively, shaped like JSON
// Schema rather than a flat field list, since tool input must validate
// against the shape an LLM actually emits.

// Object builds an object-typed Schema from a property map and a list of
// required property names.
func Object(properties map[string]Schema, required ...string) Schema {
	return Schema{Type: "object", Properties: properties, Required: required}
}

// String builds a string-typed leaf Schema, optionally constrained to enum.
func String(enum ...string) Schema {
	return Schema{Type: "string", Enum: enum}
}

// Number builds a number-typed leaf Schema.
func Number() Schema { return Schema{Type: "number"} }

// Integer builds an integer-typed leaf Schema.
func Integer() Schema { return Schema{Type: "integer"} }

// Boolean builds a boolean-typed leaf Schema.
func Boolean() Schema { return Schema{Type: "boolean"} }

// Array builds an array-typed Schema whose items match itemSchema.
func Array(itemSchema Schema) Schema {
	return Schema{Type: "array", Items: &itemSchema}
}
