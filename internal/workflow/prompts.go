package workflow

import (
	"strings"
	"text/template"

	"agent-qa/backend/internal/llm"
)

var answerPrompt = template.Must(template.New("answer").Parse(`You are an expert AI assistant. Answer the question below based on the context.
Question: {{.Question}}
Context: {{.Context}}
Previous answers: {{.PreviousAnswers}}

Provide a comprehensive and accurate answer. If the previous answers are good, build on them and improve them.
Answer:`))

var scorePrompt = template.Must(template.New("score").Parse(`Rate the following question and answer pair for accuracy and completeness on a scale of 0-100.
Question: {{.Question}}
Answer: {{.Answer}}

Reply with the numeric score only:`))

// Generation parameters per call site.
var (
	answerParams = llm.Request{MaxOutputTokens: 2048, Temperature: 0.7}
	scoreParams  = llm.Request{MaxOutputTokens: 2048, Temperature: 0.3}
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
