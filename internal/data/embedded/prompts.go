// Package embedded provides access to data files compiled into the Nuance binary.
package embedded

import _ "embed"

// PromptsData contains the embedded prompt catalog YAML data.
//
//go:embed prompts.yaml
var PromptsData []byte
