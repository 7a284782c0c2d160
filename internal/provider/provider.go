// Package provider is the static catalog of supported speech and text vendors.
//
// Entries are process-wide constants; Get hands out copies so adapters can
// never mutate the catalog. Consistency with the vendors is maintained by
// hand, adapters re-check limits before every request.
package provider

import "sort"

var registry = map[string]ApiProvider{}

func init() {
	register(openAIProvider())
	register(groqProvider())
}

func register(p ApiProvider) {
	registry[p.ID] = p
}

// Get returns a copy of the catalog entry for id
func Get(id string) (ApiProvider, bool) {
	p, ok := registry[id]
	if !ok {
		return ApiProvider{}, false
	}
	return p.clone(), true
}

// List returns all provider ids, sorted
func List() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListWith returns the sorted ids of providers declaring a capability
func ListWith(capability Capability) []string {
	var ids []string
	for _, id := range List() {
		if registry[id].Capabilities.Has(capability) {
			ids = append(ids, id)
		}
	}
	return ids
}
