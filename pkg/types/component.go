package types

import "fmt"

// ComponentKey is the composite identity of a deployed component. The full
// 4-tuple is the key: two entries that share a component name but differ in
// application or module are distinct.
type ComponentKey struct {
	AppName       string `json:"app_name"`
	ModuleName    string `json:"module_name"`
	DistinctName  string `json:"distinct_name"`
	ComponentName string `json:"component_name"`
}

// NewComponentKey creates a ComponentKey from its four parts.
func NewComponentKey(app, module, distinct, component string) ComponentKey {
	return ComponentKey{
		AppName:       app,
		ModuleName:    module,
		DistinctName:  distinct,
		ComponentName: component,
	}
}

// ModuleID renders the module identifier part of the key as app/module/distinct.
func (k ComponentKey) ModuleID() string {
	return fmt.Sprintf("%s/%s/%s", k.AppName, k.ModuleName, k.DistinctName)
}

// String renders the full component identity.
func (k ComponentKey) String() string {
	return fmt.Sprintf("%s/%s", k.ModuleID(), k.ComponentName)
}
