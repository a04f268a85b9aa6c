package content

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ValidationError reports a required editor field that is missing at
// assemble time. It is surfaced to the caller before any write is attempted
// and never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// EditorFormState is the flat admin-form shape: metadata inputs as the user
// typed them, with tags and cross-reference IDs still comma-separated.
type EditorFormState struct {
	NumericID   int64     `form:"id" validate:"required,gt=0"`
	Title       string    `form:"title" validate:"required"`
	Category    string    `form:"category"`
	Difficulty  string    `form:"difficulty"`
	Tags        string    `form:"tags"`
	Cover       string    `form:"cover"`
	ProblemRefs string    `form:"problems"`
	LessonRefs  string    `form:"lessons"`
	Draft       bool      `form:"draft"`
	Author      string    `form:"author"`
	CreatedAt   time.Time `form:"-"`
}

// Assembler converts between editor form state and persisted entities.
// Conversion is pure; reading and writing documents stays with the store.
type Assembler struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewAssembler builds an Assembler with english validation messages.
func NewAssembler() (*Assembler, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Assembler{validate: validate, trans: trans}, nil
}

// AssembleLesson builds the persisted lesson shape from editor state.
// An empty title fails with ValidationError{Field:"title"}. Tag and
// problem-reference inputs are parsed permissively: empty or unparseable
// tokens drop out without an error.
func (a *Assembler) AssembleLesson(form EditorFormState, blocks []Block) (Lesson, error) {
	if err := a.check(form); err != nil {
		return Lesson{}, err
	}
	return Lesson{
		NumericID:   form.NumericID,
		Title:       strings.TrimSpace(form.Title),
		Category:    form.Category,
		Tags:        ParseTagList(form.Tags),
		Cover:       strings.TrimSpace(form.Cover),
		Blocks:      blocks,
		ProblemRefs: ParseRefList(form.ProblemRefs),
		Draft:       form.Draft,
		Author:      form.Author,
		CreatedAt:   form.CreatedAt,
	}, nil
}

// AssembleProblem builds the persisted problem shape from editor state, the
// statement sequence, and the solution group snapshot.
func (a *Assembler) AssembleProblem(form EditorFormState, statement []Block, solutions []Solution) (Problem, error) {
	if err := a.check(form); err != nil {
		return Problem{}, err
	}
	difficulty := form.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	// renumber defensively so persisted ids can never drift from display order
	for i := range solutions {
		solutions[i].Ordinal = i + 1
	}
	return Problem{
		NumericID:  form.NumericID,
		Title:      strings.TrimSpace(form.Title),
		Category:   form.Category,
		Difficulty: difficulty,
		Tags:       ParseTagList(form.Tags),
		Statement:  statement,
		Solutions:  solutions,
		LessonRefs: ParseRefList(form.LessonRefs),
		Draft:      form.Draft,
		Author:     form.Author,
		CreatedAt:  form.CreatedAt,
	}, nil
}

// LessonFormState is the inverse of AssembleLesson for the metadata fields.
func LessonFormState(l Lesson) EditorFormState {
	return EditorFormState{
		NumericID:   l.NumericID,
		Title:       l.Title,
		Category:    l.Category,
		Tags:        strings.Join(l.Tags, ", "),
		Cover:       l.Cover,
		ProblemRefs: joinRefs(l.ProblemRefs),
		Draft:       l.Draft,
		Author:      l.Author,
		CreatedAt:   l.CreatedAt,
	}
}

// ProblemFormState is the inverse of AssembleProblem for the metadata fields.
func ProblemFormState(p Problem) EditorFormState {
	return EditorFormState{
		NumericID:  p.NumericID,
		Title:      p.Title,
		Category:   p.Category,
		Difficulty: p.Difficulty,
		Tags:       strings.Join(p.Tags, ", "),
		LessonRefs: joinRefs(p.LessonRefs),
		Draft:      p.Draft,
		Author:     p.Author,
		CreatedAt:  p.CreatedAt,
	}
}

func (a *Assembler) check(form EditorFormState) error {
	err := a.validate.Struct(form)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return fmt.Errorf("validate editor form: %w", err)
	}
	first := errs[0]
	return &ValidationError{Field: first.Field(), Message: first.Translate(a.trans)}
}

// ParseTagList splits a comma-separated tag input, trimming whitespace and
// dropping empty and duplicate tokens.
func ParseTagList(input string) []string {
	tokens := strings.Split(input, ",")
	tags := lo.FilterMap(tokens, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	})
	return lo.Uniq(tags)
}

// ParseRefList splits a comma-separated numeric-ID input. Unparseable tokens
// drop out silently, matching the permissive source behavior.
func ParseRefList(input string) []int64 {
	tokens := strings.Split(input, ",")
	return lo.FilterMap(tokens, func(t string, _ int) (int64, bool) {
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return id, err == nil && id > 0
	})
}

func joinRefs(refs []int64) string {
	parts := lo.Map(refs, func(id int64, _ int) string {
		return strconv.FormatInt(id, 10)
	})
	return strings.Join(parts, ", ")
}
