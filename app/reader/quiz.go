package reader

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// ErrNoSentences is returned when there are no sentences to ask about.
var ErrNoSentences = errors.New("could not extract sentences from summary")

// maxQuestions is the number of questions in a quiz.
const maxQuestions = 5

// Question is a multiple-choice question about the article.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

var questionTemplates = []string{
	"What is mentioned in the article about %s?",
	"According to the article, what happened regarding %s?",
	"The article discusses %s in relation to what?",
	"Which of the following is true about %s?",
	"What does the article state about %s?",
}

var genericWrongAnswers = []string{
	"This was not mentioned in the article",
	"The article states the opposite",
	"None of the above",
	"This is incorrect according to the article",
}

// Quiz makes up to five questions out of the summary sentences.
// Every question has the sentence itself as the correct answer and three
// wrong options taken from other sentences or generic answers.
func Quiz(summary string) ([]Question, error) {
	// summaries may come as bullet points, one per line
	var sentences []string
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
		sentences = append(sentences, splitSentences(line)...)
	}
	sentences = lo.Uniq(sentences)

	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}

	res := make([]Question, 0, maxQuestions)
	for _, sentence := range sentences {
		if len(res) >= maxQuestions {
			break
		}
		res = append(res, question(sentence, sentences))
	}

	return res, nil
}

func question(sentence string, all []string) Question {
	q := Question{CorrectAnswer: sentence}

	switch subj, proper := subject(sentence); {
	case subj != "" && proper:
		q.Question = fmt.Sprintf(lo.Sample(questionTemplates), subj)
		q.Explanation = fmt.Sprintf("This is directly stated in the article regarding %s.", subj)
	case subj != "":
		q.Question = fmt.Sprintf(lo.Sample(questionTemplates), subj)
		q.Explanation = fmt.Sprintf("This information about %s is directly stated in the article.", subj)
	default:
		q.Question = "Which of the following statements is true according to the article?"
		q.Explanation = "This statement is directly quoted from the article."
	}

	q.Options = lo.Shuffle(append([]string{sentence}, wrongOptions(sentence, all)...))
	return q
}

func wrongOptions(sentence string, all []string) []string {
	others := lo.Filter(all, func(s string, _ int) bool { return s != sentence })
	res := lo.Samples(others, 2)

	for _, generic := range rand.Perm(len(genericWrongAnswers)) {
		if len(res) >= 3 {
			break
		}
		res = append(res, genericWrongAnswers[generic])
	}

	return res
}

// subject looks for a proper noun (a capitalized word not at the start of
// the sentence), falling back to the first long word.
func subject(sentence string) (word string, proper bool) {
	words := strings.FieldsFunc(sentence, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})

	for i, w := range words {
		if i > 0 && unicode.IsUpper([]rune(w)[0]) {
			return w, true
		}
	}

	for _, w := range words {
		if len([]rune(w)) >= 5 {
			return w, false
		}
	}

	return "", false
}
