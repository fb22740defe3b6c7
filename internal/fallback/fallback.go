package fallback

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phrazzld/coursegen/internal/domain"
)

const (
	defaultModuleCount = 5
	minModuleCount     = 3
	maxModuleCount     = 8
	maxSubjectWords    = 8
	maxTags            = 5
)

type outlineEntry struct {
	title, description *template.Template
}

// outline is the fixed module progression used for every fallback course.
var outline = parseOutline([][2]string{
	{"Getting Started with {{.Subject}}", "What {{.Subject}} is, why it matters and how this course is organised."},
	{"Core Concepts", "The essential vocabulary and ideas that the rest of the course builds on."},
	{"Key Techniques", "The main methods practitioners of {{.Subject}} rely on, step by step."},
	{"Worked Examples", "Guided walkthroughs that apply the techniques to concrete problems."},
	{"Common Pitfalls", "Mistakes beginners make with {{.Subject}} and how to avoid them."},
	{"Going Deeper", "Advanced topics for learners who want to extend their understanding."},
	{"Real-World Practice", "Projects and exercises that connect {{.Subject}} to everyday work."},
	{"Review and Next Steps", "A recap of the course and suggestions for continued learning."},
})

func parseOutline(raw [][2]string) []outlineEntry {
	entries := make([]outlineEntry, len(raw))
	for i, r := range raw {
		entries[i] = outlineEntry{
			title:       template.Must(template.New(fmt.Sprintf("outline%d", i)).Parse(r[0])),
			description: template.Must(template.New(fmt.Sprintf("outline%d_desc", i)).Parse(r[1])),
		}
	}
	return entries
}

var (
	descriptionTmpl = template.Must(template.New("description").Parse(
		"A structured introduction to {{.Subject}}{{if .Audience}} for {{.Audience}}{{end}}. " +
			"The course moves from first principles to practical application across {{.ModuleCount}} modules."))

	sectionTmpls = []struct{ heading, body *template.Template }{
		{
			template.Must(template.New("h0").Parse("Overview")),
			template.Must(template.New("b0").Parse(
				"This module, {{.Module}}, is part {{.Number}} of {{.Course}}. " +
					"{{if .Description}}{{.Description}} {{end}}" +
					"Read through each section, then check your understanding with the short quiz at the end.")),
		},
		{
			template.Must(template.New("h1").Parse("Key Concepts")),
			template.Must(template.New("b1").Parse(
				"Start by identifying the central ideas behind {{.Module}}. " +
					"Write down the terms you meet for the first time and how they relate to what you already know from {{.Course}}.")),
		},
		{
			template.Must(template.New("h2").Parse("Applying {{.Module}}")),
			template.Must(template.New("b2").Parse(
				"Pick a small, concrete problem and work through it using the ideas from this module. " +
					"Reflect on what worked, what was unclear, and which questions you want to explore next.")),
		},
	}

	quizTmpls = []struct {
		question *template.Template
		options  []string
		answer   int
	}{
		{
			template.Must(template.New("q0").Parse("What is the main goal of the module \"{{.Module}}\"?")),
			[]string{
				"To understand and apply its central ideas",
				"To memorise unrelated facts",
				"To skip ahead to the final module",
				"None of the above",
			},
			0,
		},
		{
			template.Must(template.New("q1").Parse("What is a good first step when meeting a new concept in {{.Course}}?")),
			[]string{
				"Ignore it until it comes up again",
				"Write it down and relate it to what you already know",
				"Assume it is not important",
				"Move on to the quiz immediately",
			},
			1,
		},
		{
			template.Must(template.New("q2").Parse("How can you check that you have understood {{.Module}}?")),
			[]string{
				"By rereading the title",
				"By avoiding practice problems",
				"By applying it to a small, concrete problem",
				"By skipping the key concepts section",
			},
			2,
		},
	}
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "to": {}, "of": {}, "for": {}, "in": {},
	"on": {}, "with": {}, "about": {}, "how": {}, "i": {}, "want": {}, "learn": {},
	"course": {}, "teach": {}, "me": {}, "my": {}, "is": {}, "are": {},
}

type metadataData struct {
	Subject     string
	Audience    string
	ModuleCount int
}

type moduleData struct {
	Course      string
	Module      string
	Description string
	Number      int
}

// Generate builds templated content for payload. It fails only when the
// payload itself is invalid.
func Generate(payload domain.Payload) (domain.Result, error) {
	if err := domain.ValidatePayload(payload); err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case domain.MetadataRequest:
		return metadata(p)
	case domain.ModuleRequest:
		return module(p)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownKind, payload)
	}
}

func metadata(req domain.MetadataRequest) (*domain.CourseMetadata, error) {
	subject := Subject(req.Prompt)
	data := metadataData{
		Subject:     subject,
		Audience:    strings.TrimSpace(req.Audience),
		ModuleCount: moduleCount(req.ModuleCount),
	}

	description, err := render(descriptionTmpl, data)
	if err != nil {
		return nil, err
	}

	modules := make([]domain.ModuleOutline, 0, data.ModuleCount)
	for _, entry := range outlineFor(data.ModuleCount) {
		title, err := render(entry.title, data)
		if err != nil {
			return nil, err
		}
		desc, err := render(entry.description, data)
		if err != nil {
			return nil, err
		}
		modules = append(modules, domain.ModuleOutline{Title: title, Description: desc})
	}

	return &domain.CourseMetadata{
		Title:       "Introduction to " + subject,
		Description: description,
		Modules:     modules,
		Tags:        tags(subject),
	}, nil
}

func module(req domain.ModuleRequest) (*domain.ModuleContent, error) {
	data := moduleData{
		Course:      strings.TrimSpace(req.CourseTitle),
		Module:      strings.TrimSpace(req.ModuleTitle),
		Description: strings.TrimSpace(req.ModuleDescription),
		Number:      req.ModuleIndex + 1,
	}

	content := &domain.ModuleContent{Title: data.Module}
	for _, s := range sectionTmpls {
		heading, err := render(s.heading, data)
		if err != nil {
			return nil, err
		}
		body, err := render(s.body, data)
		if err != nil {
			return nil, err
		}
		content.Sections = append(content.Sections, domain.Section{Heading: heading, Body: body})
	}

	for _, q := range quizTmpls {
		question, err := render(q.question, data)
		if err != nil {
			return nil, err
		}
		content.Quiz = append(content.Quiz, domain.QuizQuestion{
			Question:    question,
			Options:     append([]string(nil), q.options...),
			AnswerIndex: q.answer,
		})
	}
	return content, nil
}

// Subject derives a short title-cased course subject from a free-text prompt:
// the first sentence, cut to at most eight words.
func Subject(prompt string) string {
	words := strings.Fields(firstSentence(strings.TrimSpace(prompt)))
	if len(words) > maxSubjectWords {
		words = words[:maxSubjectWords]
	}
	for i, w := range words {
		words[i] = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	words = slices.DeleteFunc(words, func(w string) bool { return w == "" })

	if len(words) == 0 {
		return "Your Chosen Topic"
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}

// firstSentence cuts text at the first line break, or at the first '.', '!'
// or '?' followed by whitespace or the end of the text. Dots inside words such
// as "Node.js" or "3.12" do not end a sentence.
func firstSentence(text string) string {
	for i, r := range text {
		switch r {
		case '\n':
			return text[:i]
		case '.', '!', '?':
			rest := text[i+1:]
			if rest == "" || unicode.IsSpace(rune(rest[0])) {
				return text[:i]
			}
		}
	}
	return text
}

func moduleCount(requested int) int {
	if requested == 0 {
		return defaultModuleCount
	}
	return min(max(requested, minModuleCount), maxModuleCount)
}

// outlineFor keeps the first and last outline entries so every course opens
// with an introduction and closes with a review.
func outlineFor(n int) []outlineEntry {
	if n >= len(outline) {
		return outline
	}
	picked := slices.Clone(outline[:n-1])
	return append(picked, outline[len(outline)-1])
}

func tags(subject string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(strings.ToLower(subject)) {
		if _, stop := stopWords[w]; stop || len(w) < 3 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxTags-1 {
			break
		}
	}
	return append(out, "introductory")
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
