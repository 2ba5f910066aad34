// Package schema lints funnel documents and decodes them from JSON or YAML.
//
// The runtime does not require a lint-clean document: a dangling branch target
// loads fine and fails only when the lead picks that option. Validate is meant
// for authoring surfaces (the CLI validate command, the generator, the builder
// API) that want to reject such documents before they are published.
//
// Basic usage:
//
//	doc, err := schema.DecodeFile("quiz.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := schema.Validate(doc); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
package schema
