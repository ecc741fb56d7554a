package model

import "regexp"

// Kind classifies a tensor by the role the model extractor treats it as:
// spec.md §4.5's three edge sources (embedding matrix, attention Q/K
// projections, FFN activations).
type Kind string

const (
	KindEmbedding Kind = "embedding"
	KindAttention Kind = "attention"
	KindFFN       Kind = "ffn"
	KindUnknown   Kind = "unknown"
)

// Tensor name patterns follow the common HuggingFace safetensors naming
// convention (embed_tokens.weight, *.self_attn.{q,k}_proj.weight,
// *.mlp.{gate,up,down}_proj.weight); spec.md names the three tensor roles
// but not a concrete naming scheme, so this is a resolved open question
// (see DESIGN.md) grounded on the de-facto naming every safetensors-format
// checkpoint on disk actually uses.
var (
	embeddingPattern = regexp.MustCompile(`(^|\.)embed_tokens\.weight$|(^|\.)wte\.weight$`)
	attentionPattern = regexp.MustCompile(`self_attn\.(q|k)_proj\.weight$`)
	ffnPattern       = regexp.MustCompile(`mlp\.(gate|up|down)_proj\.weight$`)
)

// ClassifyTensor maps a tensor name to the edge-source kind the extractor
// treats it as, or KindUnknown for tensors the extractor skips entirely
// (layer norms, biases, rotary embeddings, etc).
func ClassifyTensor(name string) Kind {
	switch {
	case embeddingPattern.MatchString(name):
		return KindEmbedding
	case attentionPattern.MatchString(name):
		return KindAttention
	case ffnPattern.MatchString(name):
		return KindFFN
	default:
		return KindUnknown
	}
}
