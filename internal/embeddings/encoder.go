package embeddings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Encoder runs a sentence-transformer ONNX graph. The session is loaded
// once and is safe for concurrent Run calls; the encoder holds no mutable
// state after construction.
type Encoder struct {
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	maxSeq  int
	modelID string
}

// NewEncoder initializes the ONNX Runtime environment, the tokenizer and
// the inference session. Failures here are fatal configuration errors.
func NewEncoder(cfg Config) (*Encoder, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("embeddings: model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, errors.New("embeddings: tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = defaultMaxSeqLen
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(cfg.ModelPath)
	}

	if !ort.IsInitialized() {
		if cfg.OrtLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.OrtLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("embeddings: initialize onnxruntime: %w", err)
		}
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("embeddings: load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil)
	if err != nil {
		return nil, fmt.Errorf("embeddings: open model %s: %w", cfg.ModelPath, err)
	}

	return &Encoder{
		tk:      tk,
		session: session,
		maxSeq:  cfg.MaxSeqLen,
		modelID: cfg.ModelID,
	}, nil
}

// ModelID identifies the loaded model for cache keying.
func (e *Encoder) ModelID() string {
	return e.modelID
}

// Close releases the inference session and the runtime environment.
func (e *Encoder) Close() error {
	if e == nil || e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	if destroyErr := ort.DestroyEnvironment(); err == nil {
		err = destroyErr
	}
	return err
}

// EmbedText embeds a single string.
func (e *Encoder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts embeds a batch in one forward pass. Inputs longer than the
// configured sequence length are truncated.
func (e *Encoder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.session == nil {
		return nil, errors.New("embeddings: encoder is closed")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encodings := make([]*tokenizer.Encoding, len(texts))
	maxLen := 1
	for i, text := range texts {
		en, err := e.tk.EncodeSingle(NormalizeText(text), true)
		if err != nil {
			return nil, fmt.Errorf("embeddings: tokenize: %w", err)
		}
		if len(en.Ids) > e.maxSeq {
			en.Ids = en.Ids[:e.maxSeq]
			en.AttentionMask = en.AttentionMask[:e.maxSeq]
			en.TypeIds = en.TypeIds[:e.maxSeq]
		}
		if len(en.Ids) > maxLen {
			maxLen = len(en.Ids)
		}
		encodings[i] = en
	}

	batch := len(texts)
	ids := make([]int64, batch*maxLen)
	mask := make([]int64, batch*maxLen)
	typeIDs := make([]int64, batch*maxLen)
	for i, en := range encodings {
		base := i * maxLen
		for j, id := range en.Ids {
			ids[base+j] = int64(id)
			mask[base+j] = int64(en.AttentionMask[j])
			typeIDs[base+j] = int64(en.TypeIds[j])
		}
	}

	shape := ort.NewShape(int64(batch), int64(maxLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("embeddings: input tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("embeddings: mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("embeddings: type tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor, typeTensor}, outputs); err != nil {
		return nil, fmt.Errorf("embeddings: inference: %w", err)
	}
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("embeddings: unexpected output tensor type %T", outputs[0])
	}
	defer hidden.Destroy()

	dims := hidden.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("embeddings: unexpected output rank %d", len(dims))
	}
	hiddenSize := int(dims[2])
	data := hidden.GetData()

	out := make([][]float32, batch)
	for i := range encodings {
		row := data[i*maxLen*hiddenSize : (i+1)*maxLen*hiddenSize]
		vec := meanPool(row, mask[i*maxLen:(i+1)*maxLen], hiddenSize)
		l2Normalize(vec)
		out[i] = vec
	}
	return out, nil
}
