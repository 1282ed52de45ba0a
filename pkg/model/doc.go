// Package model defines the form definition tree consumed by the resolver,
// serializer and reactive engine. A Schema is an ordered forest of Nodes; each
// Node is one field or layout container described through chainable
// configuration methods:
//
//	schema := model.NewSchema("address",
//		model.Select("country").WithLabel("Country").Live(0).
//			StaticOptions(model.Option{Value: "us", Label: "United States"}),
//		model.Select("state").WithLabel("State").
//			Computed("states.byCountry", "country"),
//	)
//
// Behaviour shared across kinds (visibility, validation, reactivity) lives in
// small capability structs attached to the Node instead of per-kind types.
// Option sources are tagged variants (static, relationship, computed,
// expression) so they can be described in files and resolved through named
// functions rather than closures.
package model
