// Package integrations contains the built-in site adapters.
package integrations

import (
	"github.com/entrhq/webtool/pkg/integration"
)

// All returns the built-in adapters in precedence order. GitLab precedes
// Redmine because both claim */issues/* pages.
func All() []integration.Adapter {
	return []integration.Adapter{
		GitLab{},
		GitHub{},
		Jira{},
		Redmine{},
		Trello{},
		Wrike{},
	}
}

// Default returns a registry holding every built-in adapter.
func Default(opts ...integration.RegistryOption) *integration.Registry {
	reg := integration.NewRegistry(opts...)
	reg.MustRegister(All()...)
	return reg
}
