package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kihon/kuiz/internal/outbox"
	"github.com/kihon/kuiz/internal/quiz"
	"github.com/kihon/kuiz/internal/session"
)

func playQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: "q1", Category: quiz.CategoryBasicIT, Text: "2進数の10は?", Options: []string{"2", "3"}, Answer: 0},
		{ID: "q2", Category: quiz.CategoryITPassport, Text: "CPUの略は?", Options: []string{"Central Processing Unit", "Core Power Unit"}, Answer: 0},
	}
}

func newPlayRunner(policy session.Policy) (*session.Runner, *outbox.Buffer, *[]outbox.Batch) {
	var sent []outbox.Batch
	buf := outbox.New("demo-user", outbox.SinkFunc(func(_ context.Context, b outbox.Batch) error {
		sent = append(sent, b)
		return nil
	}))
	r := session.NewRunner(session.Config{Outbox: buf, Policy: policy})
	return r, buf, &sent
}

func TestPlaySessionPassAndQuit(t *testing.T) {
	r, _, sent := newPlayRunner(session.DefaultPolicy(session.ModeFast))
	var out bytes.Buffer

	err := playSession(context.Background(), r, playQuestions(), strings.NewReader("p\nq\n"), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "→ パス")
	assert.Contains(t, text, "セッションを終了しました")
	assert.Contains(t, text, "1件の結果を送信しました")
	require.Len(t, *sent, 1)
	assert.Equal(t, quiz.PassChoice, (*sent)[0].Results[0].Choice)
	assert.Zero(t, r.State().TotalAnswers)
}

func TestPlaySessionInvalidInputReprompts(t *testing.T) {
	r, _, _ := newPlayRunner(session.DefaultPolicy(session.ModeManual))
	var out bytes.Buffer

	err := playSession(context.Background(), r, playQuestions()[:1], strings.NewReader("9\nabc\np\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), "1から2の番号を入力してください"))
	assert.Contains(t, out.String(), "セッションが完了しました")
}

func TestPlaySessionEOFQuits(t *testing.T) {
	r, buf, _ := newPlayRunner(session.DefaultPolicy(session.ModeFast))
	var out bytes.Buffer

	err := playSession(context.Background(), r, playQuestions(), strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "セッションを終了しました")
	assert.Zero(t, buf.Len())
}

func TestPlaySessionEmptyQueue(t *testing.T) {
	r, _, _ := newPlayRunner(session.DefaultPolicy(session.ModeFast))
	var out bytes.Buffer

	require.NoError(t, playSession(context.Background(), r, nil, strings.NewReader(""), &out))
	assert.Equal(t, "no questions in session\n", out.String())
}

func TestPrintOutcome(t *testing.T) {
	q := playQuestions()[0]

	var out bytes.Buffer
	printOutcome(&out, session.Outcome{Question: q, Choice: 1, ShowExplanation: true})
	assert.Contains(t, out.String(), "× 不正解  正解: 2")
	assert.Contains(t, out.String(), quiz.NoExplanation)

	out.Reset()
	printOutcome(&out, session.Outcome{Question: q, Choice: 0, Correct: true})
	assert.Equal(t, "○ 正解\n", out.String())
}
