// Package autocomplete is a stateless rule-based suggestion engine. It
// pattern-matches the text left of the cursor; it never touches room
// state.
package autocomplete

import (
	"regexp"
	"strings"

	"codecollab/internal/models"
)

type pattern struct {
	suffix     string
	suggestion string
	trigger    string
}

// Ordered: earlier entries win when several suffixes match.
var pythonPatterns = []pattern{
	{"def ", "function_name():\n    pass", "def"},
	{"class ", "ClassName:\n    def __init__(self):\n        pass", "class"},
	{"for ", "item in items:\n    pass", "for"},
	{"if ", "condition:\n    pass", "if"},
	{"while ", "condition:\n    pass", "while"},
	{"try", ":\n    pass\nexcept Exception as e:\n    pass", "try"},
	{"import ", "numpy as np", "import"},
	{"from ", "module import function", "from"},
	{"with ", "open('file.txt', 'r') as f:\n    pass", "with"},
	{"async def ", "function_name():\n    pass", "async def"},
}

var defNameRe = regexp.MustCompile(`\bdef\s+\w*$`)

type Service struct{}

func NewService() *Service { return &Service{} }

// Suggest returns a completion for the text at cursorPosition, or false
// when the context yields nothing. Only Python is supported.
func (s *Service) Suggest(code string, cursorPosition int, language string) (models.AutocompleteResponse, bool) {
	if language != "python" {
		return models.AutocompleteResponse{}, false
	}
	if cursorPosition < 0 {
		cursorPosition = 0
	}
	if cursorPosition > len(code) {
		cursorPosition = len(code)
	}

	beforeCursor := code[:cursorPosition]
	lines := strings.Split(beforeCursor, "\n")
	currentLine := lines[len(lines)-1]

	for _, p := range pythonPatterns {
		if strings.HasSuffix(currentLine, p.suffix) {
			return models.AutocompleteResponse{
				Suggestion:     p.suggestion,
				InsertPosition: cursorPosition,
				TriggerWord:    p.trigger,
			}, true
		}
	}

	if strings.TrimSpace(currentLine) == "import" {
		return models.AutocompleteResponse{
			Suggestion:     " os",
			InsertPosition: cursorPosition,
			TriggerWord:    "import",
		}, true
	}

	if defNameRe.MatchString(currentLine) {
		return models.AutocompleteResponse{
			Suggestion:     "():\n    pass",
			InsertPosition: cursorPosition,
			TriggerWord:    "def",
		}, true
	}

	if strings.HasSuffix(currentLine, "print") {
		return models.AutocompleteResponse{
			Suggestion:     "()",
			InsertPosition: cursorPosition,
			TriggerWord:    "print",
		}, true
	}

	if strings.HasSuffix(strings.TrimSpace(currentLine), "=") {
		return models.AutocompleteResponse{
			Suggestion:     " None",
			InsertPosition: cursorPosition,
			TriggerWord:    "=",
		}, true
	}

	return models.AutocompleteResponse{}, false
}
