package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaver-rag-go/internal/model"
)

func TestSelectKeywordClassification(t *testing.T) {
	assert.Equal(t, model.StrategySemantic, Select("Academic Research Group", nil))
	assert.Equal(t, model.StrategySentence, Select("legal department", nil))
	assert.Equal(t, model.StrategyRecursive, Select("Technical Manuals", nil))
	assert.Equal(t, model.StrategyToken, Select("code review / development", nil))
}

func TestSelectExtensionHistogram(t *testing.T) {
	assert.Equal(t, model.StrategySentence, Select("", []string{".pdf", ".pdf", ".txt"}))
	assert.Equal(t, model.StrategyRecursive, Select("", []string{".md", ".md", ".txt", ".txt", ".txt"}))
	assert.Equal(t, model.StrategySentence, Select("", []string{".docx", ".docx", ".docx", ".txt", ".txt"}))
	assert.Equal(t, model.StrategySentence, Select("", []string{".txt"}))
	assert.Equal(t, model.StrategySentence, Select("", nil))
}

func TestSelectDeterministic(t *testing.T) {
	exts := []string{".pdf", ".md", ".docx"}
	first := Select("misc notes", exts)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Select("misc notes", exts))
	}
}

func TestTopKForProjectType(t *testing.T) {
	assert.Equal(t, 8, TopKForProjectType("academic"))
	assert.Equal(t, 10, TopKForProjectType("technical docs"))
	assert.Equal(t, 6, TopKForProjectType("legal"))
	assert.Equal(t, 6, TopKForProjectType(""))
}

func TestResolveParamsMergesOverrides(t *testing.T) {
	p := ResolveParams(model.StrategySentence, `{"chunk_size": 256, "top_k": 4}`)
	assert.Equal(t, 256, p.ChunkSize)
	assert.Equal(t, 50, p.ChunkOverlap)
	assert.Equal(t, 4, p.TopK)

	p = ResolveParams(model.StrategySentence, "not json")
	assert.Equal(t, 512, p.ChunkSize)
}

func TestSplitEmptyInput(t *testing.T) {
	for _, strategy := range []string{model.StrategySentence, model.StrategyToken, model.StrategyRecursive, model.StrategySemantic, model.StrategyDefault} {
		assert.Empty(t, Split("", strategy, Params{}, nil), strategy)
		assert.Empty(t, Split("   \n\n  ", strategy, Params{}, nil), strategy)
	}
}

func TestSplitChunksAreTrimmedAndNonEmpty(t *testing.T) {
	text := strings.Repeat("Weaver indexes project documents. ", 100)
	for _, strategy := range []string{model.StrategySentence, model.StrategyToken, model.StrategyRecursive, model.StrategyDefault} {
		chunks := Split(text, strategy, Params{}, nil)
		require.NotEmpty(t, chunks, strategy)
		for _, c := range chunks {
			assert.NotEmpty(t, c, strategy)
			assert.Equal(t, strings.TrimSpace(c), c, strategy)
		}
	}
}

func TestSplitTerminatesWhenOverlapExceedsSize(t *testing.T) {
	text := strings.Repeat("abc def ghi. ", 200)
	chunks := Split(text, model.StrategyDefault, Params{ChunkSize: 50, ChunkOverlap: 100}, nil)
	assert.NotEmpty(t, chunks)
}

func TestSplitDefaultPrefersDelimiterBoundary(t *testing.T) {
	text := "First paragraph ends here.\n\nSecond paragraph continues with more content after the break."
	chunks := Split(text, model.StrategyDefault, Params{ChunkSize: 40, ChunkOverlap: 5}, nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "First paragraph ends here.", chunks[0])
}

func TestSplitCoversAllInput(t *testing.T) {
	text := "Hello world.\n\nSecond paragraph about cats."
	chunks := Split(text, model.StrategyDefault, Params{}, nil)
	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "cats")
	assert.Contains(t, joined, "Hello world")
}

func TestSplitTokenWindowing(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := Split(text, model.StrategyToken, Params{ChunkSize: 4, ChunkOverlap: 1}, nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "one two three four", chunks[0])
	assert.Equal(t, "four five six seven", chunks[1])
	last := chunks[len(chunks)-1]
	assert.Contains(t, last, "ten")
}

func TestSplitUnknownStrategyFallsBack(t *testing.T) {
	chunks := Split("some text to split", "nonexistent", Params{}, nil)
	assert.NotEmpty(t, chunks)
}

func TestSplitSemanticWithoutEmbedderFallsBack(t *testing.T) {
	text := strings.Repeat("A sentence about databases. ", 50)
	chunks := Split(text, model.StrategySemantic, Params{}, nil)
	assert.NotEmpty(t, chunks)
}

func TestSplitSemanticEmbedErrorFallsBack(t *testing.T) {
	failing := func(texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	chunks := Split("First topic here. Second topic there.", model.StrategySemantic, Params{}, failing)
	assert.NotEmpty(t, chunks)
}

func TestSplitSemanticBreaksAtDistanceSpike(t *testing.T) {
	// 含 stocks 的组向量正交于其它组，距离突变处产生断点
	embed := func(texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, txt := range texts {
			if strings.Contains(txt, "stocks") {
				out[i] = []float32{0, 1}
			} else {
				out[i] = []float32{1, 0}
			}
		}
		return out, nil
	}
	text := "Cats are mammals. Dogs are mammals. Buy stocks now."
	chunks := Split(text, model.StrategySemantic, Params{BreakpointPercentile: 50}, embed)
	require.Greater(t, len(chunks), 1)
	assert.Contains(t, chunks[0], "Cats")
	assert.Contains(t, chunks[len(chunks)-1], "stocks")
}

func TestSplitSentenceOverlapCarriesTail(t *testing.T) {
	text := "Alpha sentence one. Beta sentence two. Gamma sentence three. Delta sentence four."
	chunks := Split(text, model.StrategySentence, Params{ChunkSize: 45, ChunkOverlap: 25}, nil)
	require.Greater(t, len(chunks), 1)
	// 相邻块之间应有句子级重叠
	assert.Contains(t, chunks[1], strings.Split(chunks[0], ". ")[len(strings.Split(chunks[0], ". "))-1])
}
