package resolver

import (
	"os"

	"github.com/eugenenazirov/tinyconf/internal/sysprop"
)

// Resolver supplies replacement values for placeholders of the form
// Prefix() + "{name}".
type Resolver interface {
	// Name is a human readable description used in diagnostics.
	Name() string
	// Prefix is the tag preceding the opening curly bracket.
	Prefix() string
	// Resolve returns the value for name, or false if it is unknown.
	Resolve(name string) (string, bool)
}

// Environment resolves "${NAME}" placeholders from environment variables.
type Environment struct {
	lookup func(string) (string, bool)
}

// NewEnvironment returns a resolver backed by os.LookupEnv.
func NewEnvironment() *Environment {
	return &Environment{lookup: os.LookupEnv}
}

func (e *Environment) Name() string   { return "environment variables" }
func (e *Environment) Prefix() string { return "$" }

func (e *Environment) Resolve(name string) (string, bool) {
	return e.lookup(name)
}

// Property resolves "#{name}" placeholders from process properties.
type Property struct {
	props *sysprop.Properties
}

// NewProperty returns a resolver backed by props.
func NewProperty(props *sysprop.Properties) *Property {
	return &Property{props: props}
}

func (p *Property) Name() string   { return "system properties" }
func (p *Property) Prefix() string { return "#" }

func (p *Property) Resolve(name string) (string, bool) {
	if p.props == nil {
		return "", false
	}
	return p.props.Get(name)
}

// Default returns the resolvers in the order they are applied: environment
// variables first, then process properties.
func Default(props *sysprop.Properties) []Resolver {
	return []Resolver{NewEnvironment(), NewProperty(props)}
}
