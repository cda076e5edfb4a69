package domain

import "fmt"

// ConceptBuilder provides a fluent API for concept construction, mirroring
// the thought/branch builders the rest of this codebase's lineage uses.
type ConceptBuilder struct {
	concept *Concept
}

// NewConcept starts a ConceptBuilder with sensible defaults.
func NewConcept(id string) *ConceptBuilder {
	return &ConceptBuilder{concept: &Concept{ID: id, Metadata: map[string]any{}}}
}

func (b *ConceptBuilder) Name(name string) *ConceptBuilder {
	b.concept.Name = name
	return b
}

func (b *ConceptBuilder) Description(desc string) *ConceptBuilder {
	b.concept.Description = desc
	return b
}

func (b *ConceptBuilder) WithMetadata(key string, value any) *ConceptBuilder {
	if b.concept.Metadata == nil {
		b.concept.Metadata = make(map[string]any)
	}
	b.concept.Metadata[key] = value
	return b
}

func (b *ConceptBuilder) Build() *Concept {
	return b.concept
}

// Validate ensures the concept meets its minimum requirements.
func (b *ConceptBuilder) Validate() error {
	if b.concept.ID == "" {
		return fmt.Errorf("concept id cannot be empty")
	}
	return nil
}

// QuizItemBuilder provides a fluent API for quiz item construction.
type QuizItemBuilder struct {
	item *QuizItem
}

// NewQuizItem starts a QuizItemBuilder with a default mid-range difficulty.
func NewQuizItem(id string) *QuizItemBuilder {
	return &QuizItemBuilder{item: &QuizItem{ID: id, Difficulty: 3}}
}

func (b *QuizItemBuilder) LinkedConcepts(ids ...string) *QuizItemBuilder {
	b.item.LinkedConcepts = ids
	return b
}

func (b *QuizItemBuilder) Difficulty(level int) *QuizItemBuilder {
	b.item.Difficulty = level
	return b
}

func (b *QuizItemBuilder) Style(style string) *QuizItemBuilder {
	b.item.Style = style
	return b
}

func (b *QuizItemBuilder) Content(content any) *QuizItemBuilder {
	b.item.Content = content
	return b
}

func (b *QuizItemBuilder) Build() *QuizItem {
	return b.item
}

// Validate ensures the quiz item meets its minimum requirements.
func (b *QuizItemBuilder) Validate() error {
	if b.item.ID == "" {
		return fmt.Errorf("quiz item id cannot be empty")
	}
	if len(b.item.LinkedConcepts) == 0 {
		return fmt.Errorf("quiz item %q must link at least one concept", b.item.ID)
	}
	if b.item.Difficulty < 1 || b.item.Difficulty > 5 {
		return fmt.Errorf("quiz item %q difficulty %d out of range [1,5]", b.item.ID, b.item.Difficulty)
	}
	return nil
}
