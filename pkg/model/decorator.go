package model

// Decorator enriches a schema after it has been built and validated, such as
// applying widget hints or tenant specific labels.
type Decorator interface {
	Decorate(*Schema) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Schema) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(schema *Schema) error {
	return fn(schema)
}
