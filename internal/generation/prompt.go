package generation

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/vocab-api/internal/domain"
)

//go:embed prompts/*.tmpl
var defaultPrompts embed.FS

// levelDescriptions explains each CEFR level to the model.
var levelDescriptions = map[domain.Level]string{
	domain.LevelA1: "Absolute beginner vocabulary (very basic, everyday words)",
	domain.LevelA2: "Elementary vocabulary (common, everyday expressions)",
	domain.LevelB1: "Intermediate vocabulary (familiar matters, work, school, leisure)",
	domain.LevelB2: "Upper intermediate vocabulary (complex topics, technical discussions)",
	domain.LevelC1: "Advanced vocabulary (complex texts, implicit meaning, specialized)",
	domain.LevelC2: "Proficiency vocabulary (very advanced, nuanced, academic)",
}

type levelInfo struct {
	Code        domain.Level
	Description string
}

// wordPromptData is the data passed to the word template.
type wordPromptData struct {
	Category string
	Level    domain.Level
	Avoid    []string
	Levels   []levelInfo
}

// examplesPromptData is the data passed to the examples template.
type examplesPromptData struct {
	German string
	Level  domain.Level
}

// Prompts renders the prompts sent to a language model.
type Prompts struct {
	word     *template.Template
	examples *template.Template
}

var funcs = template.FuncMap{"join": strings.Join}

// LoadPrompts parses the prompt templates. Empty paths select the built-in
// templates.
func LoadPrompts(wordPath, examplesPath string) (*Prompts, error) {
	word, err := loadTemplate("word", wordPath, "prompts/word.tmpl")
	if err != nil {
		return nil, err
	}
	examples, err := loadTemplate("examples", examplesPath, "prompts/examples.tmpl")
	if err != nil {
		return nil, err
	}
	return &Prompts{word: word, examples: examples}, nil
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() *Prompts {
	p, err := LoadPrompts("", "")
	if err != nil {
		// ALLOW-PANIC: embedded templates are compiled into the binary
		panic(err)
	}
	return p
}

func loadTemplate(name, path, embedded string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path != "" {
		content, err = os.ReadFile(path)
	} else {
		content, err = defaultPrompts.ReadFile(embedded)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s prompt template: %v", ErrInvalidConfig, name, err)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s prompt template: %v", ErrInvalidConfig, name, err)
	}
	return tmpl, nil
}

// WordPrompt renders the prompt asking for one new word.
func (p *Prompts) WordPrompt(req WordRequest) (string, error) {
	data := wordPromptData{
		Category: req.Category,
		Level:    req.Level,
		Avoid:    req.Avoid,
	}
	for _, l := range domain.Levels {
		data.Levels = append(data.Levels, levelInfo{Code: l, Description: levelDescriptions[l]})
	}

	var buf bytes.Buffer
	if err := p.word.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute word prompt template: %w", err)
	}
	return buf.String(), nil
}

// ExamplesPrompt renders the prompt asking for example sentences. Entries
// without a level are treated as A1.
func (p *Prompts) ExamplesPrompt(entry domain.VocabularyEntry) (string, error) {
	data := examplesPromptData{German: entry.German, Level: entry.Level}
	if data.Level == "" {
		data.Level = domain.LevelA1
	}

	var buf bytes.Buffer
	if err := p.examples.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute examples prompt template: %w", err)
	}
	return buf.String(), nil
}
