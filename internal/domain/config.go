package domain

// KeyPrefix is the namespace for every key offpath writes to Redis/Valkey.
const KeyPrefix = "offpath:"

// VectorConfig describes the embedding model the indexes are built for.
type VectorConfig struct {
	Model      string
	Dimensions int
	// Task prefixes the model was trained with. Not applied unless configured.
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the defaults for modernbert-embed-base, the model the
// precomputed corpus embeddings were produced with.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:               "nomic-ai/modernbert-embed-base",
		Dimensions:          768,
		DocumentInstruction: "search_document: ",
		QueryInstruction:    "search_query: ",
	}
}
