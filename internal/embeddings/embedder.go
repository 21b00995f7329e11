// Package embeddings provides sentence embeddings backed by a pretrained
// ONNX MiniLM model. Vectors are mean-pooled over the attention mask and
// L2-normalized, so cosine similarity between two embeddings reduces to a
// dot product.
package embeddings

import "context"

// Embedder converts text into fixed-length normalized vectors. Lookups are
// deterministic for a given model and text; EmbedTexts is order-independent
// and may batch texts into a single forward pass.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Config wires the encoder to its model artifacts.
type Config struct {
	// OrtLibraryPath points at the ONNX Runtime shared library. Empty means
	// the library is already on the loader path.
	OrtLibraryPath string
	// ModelPath is the exported sentence-transformer ONNX graph.
	ModelPath string
	// TokenizerPath is the HuggingFace tokenizer.json next to the model.
	TokenizerPath string
	// MaxSeqLen truncates long inputs; overflow is never an error.
	MaxSeqLen int
	// ModelID keys cache entries; defaults to the model file name.
	ModelID string
	// CacheDir enables the on-disk vector cache when set.
	CacheDir string
}

const defaultMaxSeqLen = 256
