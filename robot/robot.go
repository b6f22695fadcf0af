// Package robot builds the components of a config and holds them for their lifetime.
package robot

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/viam-modules/soilmoisture/components/board"
	"github.com/viam-modules/soilmoisture/config"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

// A Robot owns every component built from a config. Components are built so that each one comes
// after its dependencies and are closed in the reverse order.
type Robot struct {
	mu      sync.Mutex
	logger  logging.Logger
	loggers *logging.Registry
	graph   *resource.Graph
	debug   bool
	built   []resource.Name
	closed  bool
}

// FromConfigPath is a helper to read and process a config given its path and then create a robot
// based on it.
func FromConfigPath(ctx context.Context, cfgPath string, logger logging.Logger) (*Robot, error) {
	cfg, err := config.Read(cfgPath)
	if err != nil {
		logger.Errorw("cannot read config", "path", cfgPath, "error", err)
		return nil, err
	}
	return New(ctx, cfg, logger)
}

// New builds every component in cfg. If any component fails to build, the ones already built are
// closed and the error is returned. With cfg.Debug set, resource loggers start at debug level
// unless a log pattern says otherwise.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Robot, error) {
	r := &Robot{
		logger:  logger,
		loggers: logging.NewRegistry(),
		graph:   resource.NewGraph(),
		debug:   cfg.Debug,
	}
	if err := r.loggers.UpdateConfig(cfg.LogConfig, logger); err != nil {
		return nil, err
	}

	confs, err := r.buildGraph(cfg)
	if err != nil {
		return nil, err
	}

	for _, name := range r.graph.TopologicalSort() {
		res, err := r.newResource(ctx, name, confs[name])
		if err != nil {
			return nil, multierr.Combine(
				errors.Wrapf(err, "failed to build %q", name.ShortName()),
				r.Close(ctx),
			)
		}
		r.graph.AddNode(name, res)
		r.built = append(r.built, name)
	}
	logger.Infow("robot ready", "resources", len(r.built))
	return r, nil
}

// buildGraph adds a node per component and an edge per dependency. Dependencies are referenced by
// component name, so every name must be defined and the edges must not form a cycle. When exactly
// one board is configured, every other component that names no board depends on it implicitly.
func (r *Robot) buildGraph(cfg *config.Config) (map[resource.Name]resource.Config, error) {
	confs := make(map[resource.Name]resource.Config, len(cfg.Components))
	byName := make(map[string]resource.Name, len(cfg.Components))
	for idx := range cfg.Components {
		conf := cfg.Components[idx]
		if conf.ConvertedAttributes == nil {
			if err := resource.ConvertAttributes(&conf); err != nil {
				return nil, err
			}
		}
		if _, err := conf.Validate(fmt.Sprintf("%s.%d", "components", idx)); err != nil {
			return nil, err
		}
		name := conf.ResourceName()
		if _, ok := byName[name.Name]; ok {
			return nil, errors.Errorf("component name %q is not unique", name.Name)
		}
		byName[name.Name] = name
		confs[name] = conf
		r.graph.AddNode(name, nil)
	}

	boards := lo.Filter(lo.Values(byName), func(name resource.Name, _ int) bool { return name.API == board.API })
	for name, conf := range confs {
		hasBoard := false
		for _, dep := range conf.Dependencies() {
			depName, ok := byName[dep]
			if !ok {
				return nil, errors.Errorf("resource %q depends on %q which is not configured", name.ShortName(), dep)
			}
			if err := r.graph.AddDependency(name, depName); err != nil {
				return nil, err
			}
			hasBoard = hasBoard || depName.API == board.API
		}
		if !hasBoard && len(boards) == 1 && name.API != board.API {
			if err := r.graph.AddDependency(name, boards[0]); err != nil {
				return nil, err
			}
		}
	}
	return confs, nil
}

func (r *Robot) newResource(ctx context.Context, name resource.Name, conf resource.Config) (res resource.Resource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Wrap(errors.Errorf("%v", rec), "panic creating resource")
		}
	}()
	reg, ok := resource.LookupRegistration(conf.API, conf.Model)
	if !ok {
		return nil, errors.Errorf("unknown resource api: %s and/or model: %s", conf.API, conf.Model)
	}

	deps := make(resource.Dependencies)
	for _, dep := range r.graph.DependenciesOf(name) {
		node, _ := r.graph.Node(dep)
		depRes, ok := node.(resource.Resource)
		if !ok {
			return nil, resource.DependencyNotFoundError(dep)
		}
		deps[dep] = depRes
	}

	sub := r.logger.Sublogger(name.ShortName())
	if r.debug {
		sub.SetLevel(logging.DEBUG)
	}
	resLogger := r.loggers.GetOrRegister(name.ShortName(), sub)
	return reg.Constructor(ctx, deps, conf, resLogger)
}

// ResourceByName returns the built resource with the given name.
func (r *Robot) ResourceByName(name resource.Name) (resource.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.graph.Node(name)
	if !ok || r.closed {
		return nil, resource.NewNotFoundError(name)
	}
	res, ok := node.(resource.Resource)
	if !ok {
		return nil, resource.NewNotFoundError(name)
	}
	return res, nil
}

// ResourceNames returns the names of all built resources, sorted.
func (r *Robot) ResourceNames() []resource.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return []resource.Name{}
	}
	return lo.Filter(r.graph.Names(), func(name resource.Name, _ int) bool {
		return slices.Contains(r.built, name)
	})
}

// Loggers returns the registry holding each resource's logger.
func (r *Robot) Loggers() *logging.Registry {
	return r.loggers
}

// Close closes every built resource, dependents before their dependencies. Close is idempotent.
func (r *Robot) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	for _, name := range lo.Reverse(slices.Clone(r.built)) {
		node, _ := r.graph.Node(name)
		res, ok := node.(resource.Resource)
		if !ok {
			continue
		}
		if closeErr := res.Close(ctx); closeErr != nil {
			err = multierr.Combine(err, errors.Wrapf(closeErr, "failed to close %q", name.ShortName()))
		}
	}
	return err
}
