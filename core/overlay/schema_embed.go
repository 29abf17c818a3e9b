package overlay

import "embed"

const patchSetSchemaFile = "schema/patchset.schema.json"

//go:embed schema/*.json
var schemaFS embed.FS
