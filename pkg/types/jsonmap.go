package types

// JSONMap stores loosely structured payloads in jsonb columns via the gorm
// json serializer. Provider payloads are archived here after normalization.
type JSONMap map[string]any
