package embedder

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates a sentence-transformer exported to ONNX.
type ONNXConfig struct {
	// ModelDir holds model.onnx and tokenizer.json.
	ModelDir string
	// LibraryPath points at libonnxruntime. Empty uses the loader default.
	LibraryPath string
	// MaxSeqLen caps tokens per input. Zero means 256.
	MaxSeqLen int
}

// ONNXEmbedder runs a local transformer through ONNX Runtime and mean-pools
// the last hidden state into a unit-length vector.
type ONNXEmbedder struct {
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	name    string
	maxLen  int

	// The session is not safe for concurrent Run calls.
	mu sync.Mutex
}

// NewONNXEmbedder loads the tokenizer and model from cfg.ModelDir.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	tok, err := pretrained.FromFile(filepath.Join(cfg.ModelDir, "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("set graph optimization: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(0); err != nil {
		log.Warn().Err(err).Msg("could not set onnx thread count")
	}

	session, err := ort.NewDynamicAdvancedSession(
		filepath.Join(cfg.ModelDir, "model.onnx"),
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	maxLen := cfg.MaxSeqLen
	if maxLen <= 0 {
		maxLen = 256
	}

	return &ONNXEmbedder{
		tok:     tok,
		session: session,
		name:    "onnx:" + filepath.Base(filepath.Clean(cfg.ModelDir)),
		maxLen:  maxLen,
	}, nil
}

// Model identifies the embedder by its model directory.
func (e *ONNXEmbedder) Model() string { return e.name }

// Embed runs the whole batch through the model in one session call.
func (e *ONNXEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}
	encodings, err := e.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	seqLen := 0
	for _, enc := range encodings {
		seqLen = max(seqLen, min(len(enc.GetIds()), e.maxLen))
	}
	batch := len(encodings)

	ids := make([]int64, batch*seqLen)
	mask := make([]int64, batch*seqLen)
	types := make([]int64, batch*seqLen)
	for i, enc := range encodings {
		tid := enc.GetIds()
		am := enc.GetAttentionMask()
		off := i * seqLen
		for j := 0; j < seqLen && j < len(tid); j++ {
			ids[off+j] = int64(tid[j])
			mask[off+j] = int64(am[j])
		}
	}

	shape := ort.NewShape(int64(batch), int64(seqLen))
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskT.Destroy()
	typesT, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	defer typesT.Destroy()

	outputs := make([]ort.Value, 1)
	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsT, maskT, typesT}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	dims := out.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	hidden := int(dims[2])

	return meanPool(out.GetData(), mask, batch, seqLen, hidden), nil
}

// EmbedSingle embeds one text.
func (e *ONNXEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Close releases the session. The runtime environment stays loaded.
func (e *ONNXEmbedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// meanPool averages token states under the attention mask, then L2-normalizes.
// data is laid out [batch][seqLen][hidden].
func meanPool(data []float32, mask []int64, batch, seqLen, hidden int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, hidden)
		var n float32
		for t := 0; t < seqLen; t++ {
			if mask[b*seqLen+t] == 0 {
				continue
			}
			n++
			row := data[(b*seqLen+t)*hidden : (b*seqLen+t+1)*hidden]
			for h, v := range row {
				vec[h] += v
			}
		}
		if n > 0 {
			for h := range vec {
				vec[h] /= n
			}
		}
		out[b] = normalize(vec)
	}
	return out
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
