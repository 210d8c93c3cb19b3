package bootstrap

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tinyconf/internal/config"
	"github.com/eugenenazirov/tinyconf/internal/sysprop"
)

// Flags holds the parsed values of the shared flags.
type Flags struct {
	ConfigFile string
	Defines    []string
	Resources  string
	Namespace  string
}

// Register adds --config, -D/--define, --resources and --namespace to app.
func Register(app *kingpin.Application) *Flags {
	f := &Flags{}
	app.Flag("config", "Configuration file: a resource name, a file path or an URL").
		Short('c').StringVar(&f.ConfigFile)
	app.Flag("define", "Process property as key=value (repeatable)").
		Short('D').StringsVar(&f.Defines)
	app.Flag("resources", "Directory bundled resources are looked up in").
		Default(".").StringVar(&f.Resources)
	app.Flag("namespace", "Prefix of the process properties belonging to the configuration").
		Default(config.DefaultNamespace).StringVar(&f.Namespace)
	return f
}

// Properties returns the process properties: platform defaults, overridden
// by -D assignments. --config takes precedence over a -D assignment of
// "<namespace>.configuration".
func (f *Flags) Properties() (*sysprop.Properties, error) {
	assignments, err := sysprop.ParseAssignments(f.Defines)
	if err != nil {
		return nil, fmt.Errorf("parse defines: %w", err)
	}

	props := sysprop.NewDefault()
	props.SetAll(assignments)
	if f.ConfigFile != "" {
		props.Set(f.Namespace+".configuration", f.ConfigFile)
	}
	return props, nil
}

// Loader builds a configuration loader from the flags.
func (f *Flags) Loader(logger *zap.Logger) (*config.Loader, error) {
	props, err := f.Properties()
	if err != nil {
		return nil, err
	}

	opts := []config.Option{
		config.WithNamespace(f.Namespace),
		config.WithLogger(logger),
	}
	if f.Resources != "" {
		opts = append(opts, config.WithResources(os.DirFS(f.Resources)))
	}
	return config.NewLoader(props, opts...), nil
}
