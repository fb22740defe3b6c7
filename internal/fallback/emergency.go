package fallback

import "github.com/phrazzld/coursegen/internal/domain"

// Emergency returns a minimal valid result for kind. It never fails and does
// not look at request content. Unknown kinds get the metadata shape.
func Emergency(kind domain.Kind) domain.Result {
	switch kind {
	case domain.KindModule:
		return &domain.ModuleContent{
			Title: "Module Content Unavailable",
			Sections: []domain.Section{{
				Heading: "Content Unavailable",
				Body:    "We could not prepare this module right now. Please try again in a few minutes.",
			}},
		}
	default:
		return &domain.CourseMetadata{
			Title:       "Untitled Course",
			Description: "We could not prepare a course outline right now. Please try again in a few minutes.",
			Modules: []domain.ModuleOutline{{
				Title:       "Getting Started",
				Description: "An introduction to the course topic.",
			}},
		}
	}
}
