package exchange

import (
	"fmt"
	"sync"
)

// Container is a thread-safe registry for connector instances. It lets
// an application hold several instances side by side, typically one per
// API key pair or sub-account.
type Container struct {
	mu        sync.RWMutex
	instances map[string]Exchange
}

// NewContainer creates and returns a new empty container.
func NewContainer() *Container {
	return &Container{
		instances: make(map[string]Exchange),
	}
}

// Register adds an instance to the container under the given name.
// An existing instance with the same name is overwritten.
func (c *Container) Register(name string, ex Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = ex
}

// Get retrieves an instance by name.
// Returns an error if no instance is registered under the name.
func (c *Container) Get(name string) (Exchange, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ex, exists := c.instances[name]
	if !exists {
		return nil, fmt.Errorf("exchange %q not found", name)
	}
	return ex, nil
}

// Names returns the names of all registered instances.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.instances))
	for name := range c.instances {
		names = append(names, name)
	}
	return names
}

// Unregister removes an instance from the container by name.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, name)
}

// Clear removes all instances from the container.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[string]Exchange)
}

// Exists reports whether an instance with the given name is registered.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.instances[name]
	return exists
}
